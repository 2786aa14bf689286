package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// DefaultTTL is how long an idle dialog is kept when the Definition does not say otherwise.
const DefaultTTL = 300 * time.Second

// Handler implements a bare step.
type Handler func(ctx context.Context, d *Dialog, u *domain.Update) (Outcome, error)

// Hook runs around the whole dialog.
type Hook func(ctx context.Context, d *Dialog, u *domain.Update) error

// StepHook runs around every step; index is the position of the step being executed.
type StepHook func(ctx context.Context, d *Dialog, u *domain.Update, index int) error

// Hooks are optional callbacks invoked by PerformStep. A returned error aborts the step.
type Hooks struct {
	BeforeFirstStep Hook
	AfterLastStep   Hook
	BeforeEveryStep StepHook
	AfterEveryStep  StepHook
}

func (h Hooks) beforeFirst(ctx context.Context, d *Dialog, u *domain.Update) error {
	if h.BeforeFirstStep == nil {
		return nil
	}
	return h.BeforeFirstStep(ctx, d, u)
}

func (h Hooks) afterLast(ctx context.Context, d *Dialog, u *domain.Update) error {
	if h.AfterLastStep == nil {
		return nil
	}
	return h.AfterLastStep(ctx, d, u)
}

func (h Hooks) beforeEvery(ctx context.Context, d *Dialog, u *domain.Update, index int) error {
	if h.BeforeEveryStep == nil {
		return nil
	}
	return h.BeforeEveryStep(ctx, d, u, index)
}

func (h Hooks) afterEvery(ctx context.Context, d *Dialog, u *domain.Update, index int) error {
	if h.AfterEveryStep == nil {
		return nil
	}
	return h.AfterEveryStep(ctx, d, u, index)
}

// Definition is the blueprint shared by every Dialog of one kind.
type Definition struct {
	// Name identifies the definition in a Registry and in persisted snapshots.
	Name     string
	Steps    []Step
	Handlers map[string]Handler
	Hooks    Hooks
	// TTL of an idle dialog in the store. Zero means DefaultTTL, negative means no expiry.
	TTL time.Duration
}

// New starts a dialog at its first step.
func (def *Definition) New(chatID int64, opts ...Option) *Dialog {
	return New(def, chatID, opts...)
}

// TTLOrDefault resolves the effective TTL.
func (def *Definition) TTLOrDefault() time.Duration {
	switch {
	case def.TTL == 0:
		return DefaultTTL
	case def.TTL < 0:
		return 0
	default:
		return def.TTL
	}
}

// IndexOf returns the position of the first step addressed by name.
func (def *Definition) IndexOf(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, s := range def.Steps {
		if s.Name() == name {
			return i, true
		}
	}
	return 0, false
}

// Validate checks the definition statically. Every problem is reported, joined.
func (def *Definition) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidStep}, args...)...))
	}

	if def.Name == "" {
		fail("dialog has no name")
	}
	if len(def.Steps) == 0 {
		fail("dialog %q has no steps", def.Name)
	}

	seen := make(map[string]int, len(def.Steps))
	for i, s := range def.Steps {
		switch {
		case s.isBare():
			if _, ok := def.Handlers[s.Handler]; !ok {
				fail("handler %q of step %d is not registered", s.Handler, i)
			}
		case s.isConfigured():
			c := s.Config
			if c.Name == "" {
				fail("configured step %d does not contain required name", i)
			}
			if c.SendMessage != nil && c.SendMessage.Text == "" {
				fail("configured step %q has a message without text", c.Name)
			}
			if c.Control.Switch != "" {
				if _, ok := def.IndexOf(c.Control.Switch); !ok {
					fail("step %q switches to unknown step %q", c.Name, c.Control.Switch)
				}
			}
			if c.Control.NextStep != "" {
				if _, ok := def.IndexOf(c.Control.NextStep); !ok {
					fail("step %q jumps to unknown step %q", c.Name, c.Control.NextStep)
				}
			}
		default:
			fail("unknown format of the step with index %d", i)
			continue
		}

		name := s.Name()
		if name == "" {
			continue
		}
		if first, dup := seen[name]; dup {
			fail("step name %q at index %d is already used at index %d", name, i, first)
			continue
		}
		seen[name] = i
	}

	return errors.Join(errs...)
}
