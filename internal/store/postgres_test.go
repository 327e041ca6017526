package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerchat/internal/common/logger"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, logger.NewTestLogger(t)), mock
}

func TestPostgresStore_InsertAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO sales (id, item, amount, counterparty, quantity, unit, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))`).
		WithArgs(sqlmock.AnyArg(), "áo sơ mi", int64(200000), "Lan", 2.0, "cái", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Insert(context.Background(), Sales, Record{
		Item:         "áo sơ mi",
		Amount:       200000,
		Counterparty: "Lan",
		Quantity:     2,
		Unit:         "cái",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertPassesExplicitDate(t *testing.T) {
	store, mock := newMockStore(t)
	occurred := time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO expenses (id, item, amount, counterparty, quantity, unit, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))`).
		WithArgs(sqlmock.AnyArg(), "tiền điện", int64(200000), "", 0.0, "", occurred).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.Insert(context.Background(), Expenses, Record{
		Item:       "tiền điện",
		Amount:     200000,
		OccurredAt: occurred,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertRejectsUnknownCollection(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.Insert(context.Background(), Collection("ledger"), Record{Item: "x", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection")
}

func TestPostgresStore_Sum(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE(SUM(amount), 0) FROM sales WHERE deleted_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(3500000)))

	total, err := store.Sum(context.Background(), Sales, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3500000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SumWithDateRange(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE deleted_at IS NULL AND occurred_at >= $1 AND occurred_at < $2`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(420000)))

	total, err := store.Sum(context.Background(), Expenses, Filter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(420000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	occurred := time.Date(2024, 5, 16, 10, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 16, 10, 0, 1, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, item, amount, counterparty, quantity, unit, occurred_at, created_at FROM expenses WHERE deleted_at IS NULL AND occurred_at >= $1 ORDER BY occurred_at DESC, created_at DESC LIMIT $2`).
		WithArgs(from, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item", "amount", "counterparty", "quantity", "unit", "occurred_at", "created_at"}).
			AddRow("a1", "tiền điện", int64(200000), "", 0.0, "", occurred, created))

	records, err := store.List(context.Background(), Expenses, Filter{From: &from}, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "tiền điện", records[0].Item)
	assert.Equal(t, int64(200000), records[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteOne(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE expenses SET deleted_at = now() WHERE id = (SELECT id FROM expenses WHERE deleted_at IS NULL AND counterparty ILIKE $1 ORDER BY occurred_at DESC LIMIT 1)`).
		WithArgs("Minh").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := store.DeleteOne(context.Background(), Expenses, Filter{Counterparty: "Minh"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteOneNoMatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE sales SET deleted_at = now() WHERE id = (SELECT id FROM sales WHERE deleted_at IS NULL AND amount = $1 ORDER BY occurred_at DESC LIMIT 1)`).
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	amount := int64(999)
	count, err := store.DeleteOne(context.Background(), Sales, Filter{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SumCacheHitSkipsDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache, cacheMock := redismock.NewClientMock()
	store := NewPostgresStoreWithCache(db, cache, time.Minute, logger.NewTestLogger(t))

	cacheMock.ExpectGet("ledger:ver:sales").SetVal("3")
	cacheMock.ExpectGet("ledger:sum:sales:v3:||||").SetVal("1500000")

	total, err := store.Sum(context.Background(), Sales, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1500000), total)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPostgresStore_SumCacheMissFillsCache(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache, cacheMock := redismock.NewClientMock()
	store := NewPostgresStoreWithCache(db, cache, time.Minute, logger.NewTestLogger(t))

	cacheMock.ExpectGet("ledger:ver:sales").RedisNil()
	cacheMock.ExpectGet("ledger:sum:sales:v0:||||").RedisNil()
	dbMock.ExpectQuery(`SELECT COALESCE(SUM(amount), 0) FROM sales WHERE deleted_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(700000)))
	cacheMock.ExpectSet("ledger:sum:sales:v0:||||", "700000", time.Minute).SetVal("OK")

	total, err := store.Sum(context.Background(), Sales, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(700000), total)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPostgresStore_InsertBumpsSumVersion(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache, cacheMock := redismock.NewClientMock()
	store := NewPostgresStoreWithCache(db, cache, time.Minute, logger.NewTestLogger(t))

	dbMock.ExpectExec(`INSERT INTO sales (id, item, amount, counterparty, quantity, unit, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))`).
		WithArgs(sqlmock.AnyArg(), "áo", int64(150000), "", 0.0, "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	cacheMock.ExpectIncr("ledger:ver:sales").SetVal(4)

	_, err = store.Insert(context.Background(), Sales, Record{Item: "áo", Amount: 150000})
	require.NoError(t, err)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPostgresStore_CacheFailureFallsThrough(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache, cacheMock := redismock.NewClientMock()
	store := NewPostgresStoreWithCache(db, cache, time.Minute, logger.NewTestLogger(t))

	cacheMock.ExpectGet("ledger:ver:sales").SetErr(assert.AnError)
	dbMock.ExpectQuery(`SELECT COALESCE(SUM(amount), 0) FROM sales WHERE deleted_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(90000)))

	total, err := store.Sum(context.Background(), Sales, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(90000), total)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestFilterKeyDeterministic(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	amount := int64(200000)
	f := Filter{Counterparty: "Lan", Amount: &amount, From: &from}

	first := filterKey(f)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, filterKey(f))
	}
	assert.NotEqual(t, first, filterKey(Filter{}))
}
