package dialog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/tgdialogs/internal/testutils"
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID = int64(42)

// recorder collects hook and handler invocations in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) hooks() dialog.Hooks {
	return dialog.Hooks{
		BeforeFirstStep: func(context.Context, *dialog.Dialog, *domain.Update) error {
			r.add("beforeFirst")
			return nil
		},
		AfterLastStep: func(context.Context, *dialog.Dialog, *domain.Update) error {
			r.add("afterLast")
			return nil
		},
		BeforeEveryStep: func(_ context.Context, _ *dialog.Dialog, _ *domain.Update, i int) error {
			r.add("before:%d", i)
			return nil
		},
		AfterEveryStep: func(_ context.Context, _ *dialog.Dialog, _ *domain.Update, i int) error {
			r.add("after:%d", i)
			return nil
		},
	}
}

func (r *recorder) handler(name string, out dialog.Outcome) dialog.Handler {
	return func(context.Context, *dialog.Dialog, *domain.Update) (dialog.Outcome, error) {
		r.add("%s", name)
		return out, nil
	}
}

func threeSteps(r *recorder) *dialog.Definition {
	return &dialog.Definition{
		Name:  "three",
		Steps: []dialog.Step{dialog.Bare("a"), dialog.Bare("b"), dialog.Bare("c")},
		Handlers: map[string]dialog.Handler{
			"a": r.handler("a", dialog.Advance()),
			"b": r.handler("b", dialog.Advance()),
			"c": r.handler("c", dialog.Advance()),
		},
		Hooks: r.hooks(),
	}
}

func perform(t *testing.T, d *dialog.Dialog) dialog.Outcome {
	t.Helper()
	out, err := d.PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
	require.NoError(t, err)
	return out
}

func TestPerformStep_CompletesAfterEveryStep(t *testing.T) {
	r := &recorder{}
	d := threeSteps(r).New(chatID)

	assert.True(t, d.IsAtStart())
	for i := 0; i < 3; i++ {
		assert.False(t, d.IsCompleted(), "step %d", i)
		perform(t, d)
	}
	assert.True(t, d.IsCompleted())
	assert.Equal(t, 3, d.Cursor())

	assert.Equal(t, []string{
		"beforeFirst", "before:0", "a", "after:0",
		"before:1", "b", "after:1",
		"before:2", "c", "after:2", "afterLast",
	}, r.calls)
}

func TestPerformStep_PredicatesInsideHandlers(t *testing.T) {
	type seen struct{ start, last bool }
	var got []seen
	probe := func(_ context.Context, d *dialog.Dialog, _ *domain.Update) (dialog.Outcome, error) {
		got = append(got, seen{d.IsAtStart(), d.IsLastStep()})
		return dialog.Advance(), nil
	}
	def := &dialog.Definition{
		Name:     "probe",
		Steps:    []dialog.Step{dialog.Bare("p"), dialog.Bare("p"), dialog.Bare("p")},
		Handlers: map[string]dialog.Handler{"p": probe},
	}
	d := def.New(chatID)
	for i := 0; i < 3; i++ {
		perform(t, d)
	}
	assert.Equal(t, []seen{{true, false}, {false, false}, {false, true}}, got)
}

func TestPerformStep_JumpAppliedAfterHooks(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = func(_ context.Context, d *dialog.Dialog, _ *domain.Update) (dialog.Outcome, error) {
		r.add("a")
		assert.Equal(t, 0, d.Cursor(), "jump must be deferred")
		return dialog.JumpTo("c"), nil
	}
	d := def.New(chatID)

	out := perform(t, d)
	assert.Equal(t, dialog.OutcomeJump, out.Kind)
	assert.Equal(t, []string{"beforeFirst", "before:0", "a", "after:0"}, r.calls)
	assert.Equal(t, 2, d.Cursor())
	assert.True(t, d.IsLastStep())
}

func TestPerformStep_NextStepFromHandler(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = func(_ context.Context, d *dialog.Dialog, _ *domain.Update) (dialog.Outcome, error) {
		require.True(t, d.NextStep("c"))
		return dialog.Advance(), nil
	}
	d := def.New(chatID)

	perform(t, d)
	assert.Equal(t, 2, d.Cursor())

	// The pending jump is consumed once.
	perform(t, d)
	assert.True(t, d.IsCompleted())
}

func TestPerformStep_UnknownJumpIgnored(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = r.handler("a", dialog.JumpTo("missing"))
	d := def.New(chatID)

	out := perform(t, d)
	assert.Equal(t, dialog.OutcomeAdvance, out.Kind)
	assert.Equal(t, 1, d.Cursor())
}

func TestPerformStep_SwitchMovesCursorImmediately(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = r.handler("a", dialog.SwitchTo("c"))
	d := def.New(chatID)

	out := perform(t, d)
	assert.Equal(t, dialog.OutcomeSwitchStep, out.Kind)
	assert.Equal(t, "c", out.Step)
	assert.Equal(t, 2, d.Cursor(), "no advance after a switch")
	assert.Equal(t, []string{"beforeFirst", "before:0", "a"}, r.calls, "after hooks are skipped")

	// Same update, target step.
	perform(t, d)
	assert.True(t, d.IsCompleted())
}

func TestPerformStep_UnknownSwitchContinues(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = r.handler("a", dialog.SwitchTo("nope"))
	d := def.New(chatID)

	out := perform(t, d)
	assert.Equal(t, dialog.OutcomeAdvance, out.Kind)
	assert.Equal(t, 1, d.Cursor())
	assert.Contains(t, r.calls, "after:0")
}

func TestPerformStep_Retry(t *testing.T) {
	tests := []struct {
		name    string
		handler dialog.Handler
	}{
		{"outcome", func(context.Context, *dialog.Dialog, *domain.Update) (dialog.Outcome, error) {
			return dialog.Retry(), nil
		}},
		{"error", func(context.Context, *dialog.Dialog, *domain.Update) (dialog.Outcome, error) {
			return dialog.Outcome{}, fmt.Errorf("want a callback: %w", domain.ErrUnexpectedUpdate)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			def := threeSteps(r)
			def.Handlers["b"] = tt.handler
			d := def.New(chatID)

			perform(t, d)
			r.calls = nil

			out := perform(t, d)
			assert.Equal(t, dialog.OutcomeRetry, out.Kind)
			assert.Equal(t, 1, d.Cursor())
			assert.Equal(t, []string{"before:1"}, r.calls)
		})
	}
}

func TestPerformStep_RetryOnLastStepSkipsAfterLast(t *testing.T) {
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["c"] = r.handler("c", dialog.Retry())
	d := def.New(chatID)

	for i := 0; i < 3; i++ {
		perform(t, d)
	}
	assert.False(t, d.IsCompleted())
	assert.NotContains(t, r.calls, "afterLast")
}

func TestPerformStep_FatalErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{}
	def := threeSteps(r)
	def.Handlers["a"] = func(context.Context, *dialog.Dialog, *domain.Update) (dialog.Outcome, error) {
		return dialog.Outcome{}, boom
	}
	d := def.New(chatID)

	_, err := d.PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Cursor())
}

func TestPerformStep_HookErrorIsFatal(t *testing.T) {
	boom := errors.New("hook")
	r := &recorder{}
	def := threeSteps(r)
	def.Hooks.BeforeFirstStep = func(context.Context, *dialog.Dialog, *domain.Update) error { return boom }
	d := def.New(chatID)

	_, err := d.PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
	assert.ErrorIs(t, err, boom)
}

func TestPerformStep_InvalidSteps(t *testing.T) {
	tests := []struct {
		name string
		def  *dialog.Definition
	}{
		{"no steps", &dialog.Definition{Name: "empty"}},
		{"neither shape", &dialog.Definition{Name: "bad", Steps: []dialog.Step{{}}}},
		{"both shapes", &dialog.Definition{Name: "bad", Steps: []dialog.Step{
			{Handler: "a", Config: &dialog.StepConfig{Name: "a"}},
		}}},
		{"unregistered handler", &dialog.Definition{Name: "bad", Steps: []dialog.Step{dialog.Bare("ghost")}}},
		{"configured without name", &dialog.Definition{Name: "bad", Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{SendMessage: &domain.OutboundMessage{Text: "hi"}}),
		}}},
		{"message without text", &dialog.Definition{Name: "bad", Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{Name: "s", SendMessage: &domain.OutboundMessage{ParseMode: "HTML"}}),
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.def.New(chatID, dialog.WithTransport(testutils.NewTransport()))
			_, err := d.PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
			assert.ErrorIs(t, err, domain.ErrInvalidStep)
			assert.ErrorIs(t, tt.def.Validate(), domain.ErrInvalidStep)
		})
	}
}

func TestPerformStep_CompletedDialogIsOutOfRange(t *testing.T) {
	r := &recorder{}
	d := threeSteps(r).New(chatID)
	d.Complete()
	require.True(t, d.IsCompleted())

	_, err := d.PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestComplete(t *testing.T) {
	t.Run("before the last step", func(t *testing.T) {
		r := &recorder{}
		def := threeSteps(r)
		def.Handlers["a"] = func(_ context.Context, d *dialog.Dialog, _ *domain.Update) (dialog.Outcome, error) {
			d.Complete()
			return dialog.Advance(), nil
		}
		d := def.New(chatID)

		perform(t, d)
		assert.True(t, d.IsCompleted())
		assert.Equal(t, 3, d.Cursor(), "cursor never passes the step count")
	})

	t.Run("on the last step", func(t *testing.T) {
		r := &recorder{}
		def := threeSteps(r)
		def.Handlers["c"] = func(_ context.Context, d *dialog.Dialog, _ *domain.Update) (dialog.Outcome, error) {
			d.Complete()
			assert.False(t, d.IsCompleted(), "no-op on the last step")
			return dialog.Advance(), nil
		}
		d := def.New(chatID)

		for i := 0; i < 3; i++ {
			perform(t, d)
		}
		assert.True(t, d.IsCompleted())
	})
}

func TestConfiguredSteps(t *testing.T) {
	r := &recorder{}
	tr := testutils.NewTransport()
	def := &dialog.Definition{
		Name: "configured",
		Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{
				Name: "greet",
				SendMessage: &domain.OutboundMessage{
					ChatID:    999,
					Text:      "<b>Hi</b>",
					ParseMode: domain.ParseModeHTML,
				},
				Control: dialog.Control{NextStep: "bye"},
			}),
			dialog.Bare("skipped"),
			dialog.Configured(dialog.StepConfig{
				Name:        "bye",
				SendMessage: &domain.OutboundMessage{Text: "Bye"},
			}),
		},
		Handlers: map[string]dialog.Handler{"skipped": r.handler("skipped", dialog.Advance())},
		Hooks:    r.hooks(),
	}
	require.NoError(t, def.Validate())
	d := def.New(chatID, dialog.WithTransport(tr))

	out := perform(t, d)
	assert.Equal(t, dialog.OutcomeJump, out.Kind)
	assert.Equal(t, 2, d.Cursor())

	perform(t, d)
	assert.True(t, d.IsCompleted())
	assert.NotContains(t, r.calls, "skipped")

	require.Len(t, tr.Messages, 2)
	assert.Equal(t, chatID, tr.Messages[0].ChatID, "chat id is always the dialog chat")
	assert.Equal(t, domain.ParseModeHTML, tr.Messages[0].ParseMode)
	assert.Equal(t, "Bye", tr.Messages[1].Text)
}

func TestConfiguredSteps_SwitchEndToEnd(t *testing.T) {
	tr := testutils.NewTransport()
	def := &dialog.Definition{
		Name: "switching",
		Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{
				Name:        "first",
				SendMessage: &domain.OutboundMessage{Text: "one"},
				Control:     dialog.Control{Switch: "third"},
			}),
			dialog.Configured(dialog.StepConfig{Name: "second", SendMessage: &domain.OutboundMessage{Text: "two"}}),
			dialog.Configured(dialog.StepConfig{Name: "third", SendMessage: &domain.OutboundMessage{Text: "three"}}),
		},
	}
	d := def.New(chatID, dialog.WithTransport(tr))

	out := perform(t, d)
	require.Equal(t, dialog.OutcomeSwitchStep, out.Kind)
	assert.Equal(t, 2, d.Cursor())

	perform(t, d)
	assert.True(t, d.IsCompleted())
	assert.Equal(t, []string{"one", "three"}, tr.Texts())
}

func TestConfiguredSteps_Complete(t *testing.T) {
	tr := testutils.NewTransport()
	def := &dialog.Definition{
		Name: "short",
		Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{
				Name:        "only-this",
				SendMessage: &domain.OutboundMessage{Text: "done"},
				Control:     dialog.Control{Complete: true},
			}),
			dialog.Configured(dialog.StepConfig{Name: "never", SendMessage: &domain.OutboundMessage{Text: "never"}}),
		},
	}
	d := def.New(chatID, dialog.WithTransport(tr))

	perform(t, d)
	assert.True(t, d.IsCompleted())
	assert.Equal(t, []string{"done"}, tr.Texts())
}

func TestConfiguredSteps_NoTransport(t *testing.T) {
	def := &dialog.Definition{
		Name:  "lonely",
		Steps: []dialog.Step{dialog.Configured(dialog.StepConfig{Name: "s", SendMessage: &domain.OutboundMessage{Text: "hi"}})},
	}
	_, err := def.New(chatID).PerformStep(context.Background(), testutils.TextUpdate(chatID, 7, "x"))
	assert.ErrorIs(t, err, domain.ErrNoTransport)
}

func TestConfiguredSteps_WithoutMessage(t *testing.T) {
	def := &dialog.Definition{
		Name:  "silent",
		Steps: []dialog.Step{dialog.Configured(dialog.StepConfig{Name: "s"})},
	}
	d := def.New(chatID)
	perform(t, d)
	assert.True(t, d.IsCompleted())
}

func TestDialogHelpers(t *testing.T) {
	tr := testutils.NewTransport()
	d := (&dialog.Definition{Name: "h"}).New(chatID, dialog.WithTransport(tr), dialog.WithUser(7))

	ctx := context.Background()
	require.NoError(t, d.Reply(ctx, "hey"))
	require.NoError(t, d.AnswerCallback(ctx, domain.CallbackAnswer{CallbackQueryID: "cb"}))
	require.NoError(t, d.SendChatAction(ctx, domain.ActionTyping))

	assert.Equal(t, chatID, tr.LastMessage().ChatID)
	assert.Equal(t, []domain.ChatAction{domain.ActionTyping}, tr.Actions)
	require.Len(t, tr.Callbacks, 1)

	user, ok := d.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), user)
}

func TestTTL(t *testing.T) {
	assert.Equal(t, dialog.DefaultTTL, (&dialog.Definition{}).TTLOrDefault())
	assert.Zero(t, (&dialog.Definition{TTL: -1}).TTLOrDefault())
	assert.Equal(t, dialog.DefaultTTL*2, (&dialog.Definition{TTL: dialog.DefaultTTL * 2}).New(1).TTL())
}

func TestValidate_Targets(t *testing.T) {
	def := &dialog.Definition{
		Name: "targets",
		Steps: []dialog.Step{
			dialog.Configured(dialog.StepConfig{Name: "a", Control: dialog.Control{Switch: "x", NextStep: "y"}}),
			dialog.Configured(dialog.StepConfig{Name: "a"}),
		},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step "x"`)
	assert.Contains(t, err.Error(), `unknown step "y"`)
	assert.Contains(t, err.Error(), `step name "a"`)
}
