// Package engine is the façade over the command pipeline: normalize,
// extract, classify, build, execute. Resolve is pure and deterministic;
// Handle adds execution, metrics, and logging on top.
package engine

import (
	"context"
	"time"

	"ledgerchat/internal/common/config"
	apperrors "ledgerchat/internal/common/errors"
	"ledgerchat/internal/common/logger"
	"ledgerchat/internal/common/metrics"
	"ledgerchat/internal/common/observability"
	"ledgerchat/internal/engine/action"
	"ledgerchat/internal/engine/entity"
	"ledgerchat/internal/engine/executor"
	"ledgerchat/internal/engine/intent"
	"ledgerchat/internal/engine/token"
	"ledgerchat/internal/store"
)

// Engine resolves free-form Vietnamese input into ledger actions and
// executes them.
type Engine struct {
	classifier *intent.Classifier
	builder    *action.Builder
	executor   *executor.Executor
	logger     logger.Logger
	obs        *observability.Observability
}

// New wires the pipeline over the default trigger table. obs may be nil.
func New(st store.Store, cfg config.EngineConfig, log logger.Logger, obs *observability.Observability) *Engine {
	triggers := intent.DefaultTriggers()
	return &Engine{
		classifier: intent.NewClassifier(triggers, cfg.MinScore),
		builder:    action.NewBuilder(triggers),
		executor:   executor.NewExecutor(st, triggers, cfg.ListPageSize, cfg.StoreTimeoutDuration(), log),
		logger:     log,
		obs:        obs,
	}
}

// Resolve runs the pipeline up to the built Action without touching the
// store. It is deterministic: the same text and now always produce the same
// Action or the same validation error.
func (e *Engine) Resolve(text string, now time.Time) (action.Action, error) {
	tokens := token.Normalize(text)
	entities := entity.Extract(tokens, now)
	cls := e.classifier.Classify(tokens)
	return e.builder.Build(cls, entities, tokens, text)
}

// Execute carries a resolved Action out against the store.
func (e *Engine) Execute(ctx context.Context, act action.Action) action.Result {
	return e.executor.Execute(ctx, act)
}

// Handle is the full chat entry point: resolve, then execute. Validation
// failures never escape as errors; they are recovered into a negative Result
// so the chat boundary has a single response shape.
func (e *Engine) Handle(ctx context.Context, text string, now time.Time) action.Result {
	start := time.Now()

	act, err := e.Resolve(text, now)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())

	var res action.Result
	if err != nil {
		res = validationResult(err)
		metrics.CommandsResolved.WithLabelValues(string(intent.Unknown)).Inc()
		metrics.CommandsFailed.WithLabelValues(string(res.ErrKind)).Inc()
	} else {
		metrics.CommandsResolved.WithLabelValues(string(act.Intent())).Inc()
		res = e.executor.Execute(ctx, act)
	}

	intentLabel := string(intent.Unknown)
	if act != nil {
		intentLabel = string(act.Intent())
	}
	if e.obs != nil {
		e.obs.RecordCommand(ctx, intentLabel, res.OK, time.Since(start))
	}
	e.logger.Info("command handled", map[string]interface{}{
		"intent":  intentLabel,
		"ok":      res.OK,
		"errKind": string(res.ErrKind),
	})
	return res
}

// validationResult converts a resolve-stage error into the localized
// negative Result the user sees.
func validationResult(err error) action.Result {
	stdErr := apperrors.AsStandardError(err)
	if stdErr == nil {
		return action.Result{
			OK:      false,
			Message: "Không hiểu yêu cầu.",
			ErrKind: apperrors.ErrCodeUnrecognized,
		}
	}

	switch stdErr.Code {
	case apperrors.ErrCodeMissingEntity:
		kind, _ := stdErr.Metadata["missingKind"].(string)
		return action.Result{
			OK:      false,
			Message: "Thiếu " + kindLabel(kind) + ", vui lòng nói rõ hơn.",
			ErrKind: stdErr.Code,
		}
	case apperrors.ErrCodeAmbiguousEntity:
		return action.Result{
			OK:      false,
			Message: "Câu có nhiều cách hiểu, vui lòng nói rõ hơn.",
			ErrKind: stdErr.Code,
		}
	default:
		return action.Result{
			OK:      false,
			Message: "Không hiểu yêu cầu.",
			ErrKind: stdErr.Code,
		}
	}
}

func kindLabel(kind string) string {
	switch kind {
	case "amount":
		return "số tiền"
	case "category":
		return "danh mục"
	case "name":
		return "tên"
	case "date_range":
		return "khoảng thời gian"
	default:
		return "thông tin"
	}
}
