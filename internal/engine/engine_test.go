package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerchat/internal/common/config"
	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/common/logger"
	"ledgerchat/internal/engine/action"
	"ledgerchat/internal/store"
)

var testNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

type fakeStore struct {
	insertCalls      int
	insertCollection store.Collection
	insertRecord     store.Record

	sumTotal int64

	listRecords []store.Record

	deleteCalls int
	deleteCount int64
}

func (f *fakeStore) Insert(_ context.Context, c store.Collection, rec store.Record) (string, error) {
	f.insertCalls++
	f.insertCollection = c
	f.insertRecord = rec
	return "rec-1", nil
}

func (f *fakeStore) Sum(_ context.Context, _ store.Collection, _ store.Filter) (int64, error) {
	return f.sumTotal, nil
}

func (f *fakeStore) List(_ context.Context, _ store.Collection, _ store.Filter, _ int) ([]store.Record, error) {
	return f.listRecords, nil
}

func (f *fakeStore) DeleteOne(_ context.Context, _ store.Collection, _ store.Filter) (int64, error) {
	f.deleteCalls++
	return f.deleteCount, nil
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		MinScore:     1,
		ListPageSize: 20,
		StoreTimeout: 1000,
		SumCacheTTL:  60000,
	}
}

func newEngine(t *testing.T, fs *fakeStore) *Engine {
	t.Helper()
	return New(fs, testConfig(), logger.NewTestLogger(t), nil)
}

func TestHandle_RecordSaleEndToEnd(t *testing.T) {
	fs := &fakeStore{}
	res := newEngine(t, fs).Handle(context.Background(), "bán áo sơ mi cho Lan 200k", testNow)

	require.True(t, res.OK, res.Message)
	assert.Equal(t, 1, fs.insertCalls)
	assert.Equal(t, store.Sales, fs.insertCollection)
	assert.Equal(t, int64(200000), fs.insertRecord.Amount)
	assert.Equal(t, "Lan", fs.insertRecord.Counterparty)
	assert.Equal(t, "áo sơ mi", fs.insertRecord.Item)
}

func TestHandle_RelativeDateUsesInjectedNow(t *testing.T) {
	fs := &fakeStore{}
	res := newEngine(t, fs).Handle(context.Background(), "chi 200k tiền điện hôm qua", testNow)

	require.True(t, res.OK, res.Message)
	assert.Equal(t, store.Expenses, fs.insertCollection)
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), fs.insertRecord.OccurredAt)
}

func TestHandle_MissingAmountIsNegativeResult(t *testing.T) {
	fs := &fakeStore{}
	res := newEngine(t, fs).Handle(context.Background(), "bán áo cho Lan", testNow)

	assert.False(t, res.OK)
	assert.Equal(t, apperrors.ErrCodeMissingEntity, res.ErrKind)
	assert.Contains(t, res.Message, "số tiền")
	assert.Zero(t, fs.insertCalls)
}

func TestHandle_AmbiguousAmountIsNegativeResult(t *testing.T) {
	fs := &fakeStore{}
	res := newEngine(t, fs).Handle(context.Background(), "bán áo 200k 200k", testNow)

	assert.False(t, res.OK)
	assert.Equal(t, apperrors.ErrCodeAmbiguousEntity, res.ErrKind)
	assert.Zero(t, fs.insertCalls)
}

func TestHandle_QueryTotal(t *testing.T) {
	fs := &fakeStore{sumTotal: 3500000}
	res := newEngine(t, fs).Handle(context.Background(), "tổng doanh thu tháng này", testNow)

	require.True(t, res.OK, res.Message)
	assert.Equal(t, int64(3500000), res.Payload["total"])
	assert.Contains(t, res.Message, "3.500.000")
}

func TestHandle_UnknownInput(t *testing.T) {
	fs := &fakeStore{}
	res := newEngine(t, fs).Handle(context.Background(), "trời hôm nay đẹp quá", testNow)

	assert.False(t, res.OK)
	assert.Equal(t, apperrors.ErrCodeUnrecognized, res.ErrKind)
	assert.Zero(t, fs.insertCalls)
	assert.Zero(t, fs.deleteCalls)
}

func TestResolve_Deterministic(t *testing.T) {
	eng := New(&fakeStore{}, testConfig(), logger.NewNoOpLogger(), nil)

	first, err := eng.Resolve("bán 2 cái áo cho Lan giá 150k hôm qua", testNow)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := eng.Resolve("bán 2 cái áo cho Lan giá 150k hôm qua", testNow)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolve_NeverTouchesStore(t *testing.T) {
	fs := &fakeStore{}
	eng := newEngine(t, fs)

	_, err := eng.Resolve("xóa chi phí hôm nay", testNow)
	require.NoError(t, err)
	assert.Zero(t, fs.insertCalls)
	assert.Zero(t, fs.deleteCalls)
}

func TestExecute_DeleteFlow(t *testing.T) {
	fs := &fakeStore{
		listRecords: []store.Record{{ID: "a1", Item: "tiền điện", Amount: 200000}},
		deleteCount: 1,
	}
	eng := newEngine(t, fs)

	act, err := eng.Resolve("xóa chi phí hôm nay", testNow)
	require.NoError(t, err)
	require.IsType(t, action.DeleteEntry{}, act)

	res := eng.Execute(context.Background(), act)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 1, fs.deleteCalls)
}
