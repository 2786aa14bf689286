package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step enter", "key", e.Key, "dialog", e.Dialog, "step", e.StepName, "index", e.StepIndex)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "step failed", "key", e.Key, "dialog", e.Dialog, "step", e.StepName, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "step leave",
				"key", e.Key,
				"dialog", e.Dialog,
				"step", e.StepName,
				"outcome", e.Outcome,
				"duration", e.Duration,
			)
		},
		OnDialogActivate: func(ctx context.Context, e *domain.DialogEvent) {
			logger.InfoContext(ctx, "dialog activated", "key", e.Key, "dialog", e.Dialog, "chat_id", e.ChatID)
		},
		OnDialogComplete: func(ctx context.Context, e *domain.DialogEvent) {
			logger.InfoContext(ctx, "dialog completed", "key", e.Key, "dialog", e.Dialog, "chat_id", e.ChatID)
		},
	}
}

// Combine fans every event out to all hooks, in order. Nil callbacks are skipped.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnDialogActivate: func(ctx context.Context, e *domain.DialogEvent) {
			for _, h := range hooks {
				if h.OnDialogActivate != nil {
					h.OnDialogActivate(ctx, e)
				}
			}
		},
		OnDialogComplete: func(ctx context.Context, e *domain.DialogEvent) {
			for _, h := range hooks {
				if h.OnDialogComplete != nil {
					h.OnDialogComplete(ctx, e)
				}
			}
		},
	}
}
