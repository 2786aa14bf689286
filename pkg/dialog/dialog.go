package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/ports"
)

// Dialog is a running conversation bound to a chat and, optionally, to one user of it.
type Dialog struct {
	def    *Definition
	chatID int64
	userID *int64
	memory *Memory
	next   int
	jumpTo *int

	transport ports.Transport
	logger    *slog.Logger
}

// Option configures a Dialog.
type Option func(*Dialog)

// WithUser binds the dialog to a single user of the chat.
func WithUser(userID int64) Option {
	return func(d *Dialog) {
		d.userID = &userID
	}
}

// WithTransport sets the transport used by steps to talk to the bot API.
func WithTransport(t ports.Transport) Option {
	return func(d *Dialog) {
		d.transport = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dialog) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a dialog positioned at the first step of def.
func New(def *Definition, chatID int64, opts ...Option) *Dialog {
	d := &Dialog{
		def:    def,
		chatID: chatID,
		memory: NewMemory(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialog) Definition() *Definition { return d.def }
func (d *Dialog) Name() string            { return d.def.Name }
func (d *Dialog) ChatID() int64           { return d.chatID }
func (d *Dialog) Memory() *Memory         { return d.memory }

// UserID returns the bound user, if any.
func (d *Dialog) UserID() (int64, bool) {
	if d.userID == nil {
		return 0, false
	}
	return *d.userID, true
}

// TTL is how long the dialog survives in the store without activity. Zero means forever.
func (d *Dialog) TTL() time.Duration { return d.def.TTLOrDefault() }

// Cursor is the index of the step that runs on the next update.
func (d *Dialog) Cursor() int { return d.next }

func (d *Dialog) Transport() ports.Transport { return d.transport }

// SetTransport injects the transport, typically after the dialog was restored from a store.
func (d *Dialog) SetTransport(t ports.Transport) { d.transport = t }

// SetLogger replaces the logger. Nil is ignored.
func (d *Dialog) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

func (d *Dialog) Logger() *slog.Logger { return d.logger }

func (d *Dialog) IsAtStart() bool   { return d.next == 0 }
func (d *Dialog) IsLastStep() bool  { return d.next == len(d.def.Steps)-1 }
func (d *Dialog) IsCompleted() bool { return d.next >= len(d.def.Steps) }

// NextStep schedules a jump to the named step, applied once the current step finishes.
// Unknown names are ignored.
func (d *Dialog) NextStep(name string) bool {
	idx, ok := d.def.IndexOf(name)
	if !ok {
		d.logger.Warn("jump to unknown step ignored", "dialog", d.def.Name, "step", name)
		return false
	}
	d.jumpTo = &idx
	return true
}

// Complete moves the cursor past the last step.
// On the last step it does nothing: finishing that step completes the dialog anyway.
func (d *Dialog) Complete() {
	if d.IsLastStep() {
		return
	}
	d.next = len(d.def.Steps)
}

// PerformStep executes the step under the cursor with u and moves the cursor according to
// the outcome. It returns the effective outcome of the step.
func (d *Dialog) PerformStep(ctx context.Context, u *domain.Update) (Outcome, error) {
	if d.IsAtStart() {
		if err := d.def.Hooks.beforeFirst(ctx, d, u); err != nil {
			return Outcome{}, fmt.Errorf("before first step: %w", err)
		}
	}

	index := d.next
	if index < 0 || index >= len(d.def.Steps) {
		return Outcome{}, fmt.Errorf("%w: undefined step with index %d", domain.ErrInvalidStep, index)
	}

	step := d.def.Steps[index]
	var (
		out Outcome
		err error
	)
	switch {
	case step.isConfigured():
		out, err = d.performConfigured(ctx, *step.Config, u, index)
	case step.isBare():
		out, err = d.performHandler(ctx, step.Handler, u, index)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown format of the step with index %d", domain.ErrInvalidStep, index)
	}
	if err != nil {
		return Outcome{}, err
	}

	switch out.Kind {
	case OutcomeRetry, OutcomeSwitchStep, OutcomeSwitchDialog:
		return out, nil
	}

	if d.IsLastStep() {
		if err := d.def.Hooks.afterLast(ctx, d, u); err != nil {
			return Outcome{}, fmt.Errorf("after last step: %w", err)
		}
	}
	d.advance()
	return out, nil
}

func (d *Dialog) performHandler(ctx context.Context, name string, u *domain.Update, index int) (Outcome, error) {
	h, ok := d.def.Handlers[name]
	if !ok || h == nil {
		return Outcome{}, fmt.Errorf("%w: handler %q is not registered in dialog %q", domain.ErrInvalidStep, name, d.def.Name)
	}

	if err := d.def.Hooks.beforeEvery(ctx, d, u, index); err != nil {
		return d.unexpected(name, fmt.Errorf("before step %q: %w", name, err))
	}

	out, err := h(ctx, d, u)
	if err != nil {
		return d.unexpected(name, fmt.Errorf("step %q: %w", name, err))
	}

	switch out.Kind {
	case OutcomeRetry:
		return out, nil
	case OutcomeSwitchDialog:
		if out.Dialog == nil {
			return Outcome{}, fmt.Errorf("step %q: switch to a nil dialog", name)
		}
		return out, nil
	case OutcomeSwitchStep:
		if d.switchTo(out.Step) {
			return out, nil
		}
		out = Advance()
	case OutcomeJump:
		if !d.NextStep(out.Step) {
			out = Advance()
		}
	}

	if err := d.def.Hooks.afterEvery(ctx, d, u, index); err != nil {
		return d.unexpected(name, fmt.Errorf("after step %q: %w", name, err))
	}
	return out, nil
}

func (d *Dialog) performConfigured(ctx context.Context, cfg StepConfig, u *domain.Update, index int) (Outcome, error) {
	if cfg.Name == "" {
		return Outcome{}, fmt.Errorf("%w: configured step %d does not contain required name", domain.ErrInvalidStep, index)
	}

	var msg *domain.OutboundMessage
	if cfg.SendMessage != nil {
		if cfg.SendMessage.Text == "" {
			return Outcome{}, fmt.Errorf("%w: configured step %q has a message without text", domain.ErrInvalidStep, cfg.Name)
		}
		m := *cfg.SendMessage
		m.ChatID = d.chatID
		msg = &m
	}

	if err := d.def.Hooks.beforeEvery(ctx, d, u, index); err != nil {
		return Outcome{}, fmt.Errorf("before step %q: %w", cfg.Name, err)
	}

	if msg != nil {
		if _, err := d.Send(ctx, *msg); err != nil {
			return Outcome{}, fmt.Errorf("step %q: %w", cfg.Name, err)
		}
	}

	if cfg.Control.Switch != "" && d.switchTo(cfg.Control.Switch) {
		return SwitchTo(cfg.Control.Switch), nil
	}

	out := Advance()
	if cfg.Control.NextStep != "" && d.NextStep(cfg.Control.NextStep) {
		out = JumpTo(cfg.Control.NextStep)
	}

	if err := d.def.Hooks.afterEvery(ctx, d, u, index); err != nil {
		return Outcome{}, fmt.Errorf("after step %q: %w", cfg.Name, err)
	}

	if cfg.Control.Complete {
		d.Complete()
	}
	return out, nil
}

// unexpected turns an ErrUnexpectedUpdate into a retry and keeps every other error fatal.
func (d *Dialog) unexpected(step string, err error) (Outcome, error) {
	if errors.Is(err, domain.ErrUnexpectedUpdate) {
		d.logger.Debug("unexpected update, step will be retried", "dialog", d.def.Name, "step", step, "err", err)
		return Retry(), nil
	}
	return Outcome{}, err
}

func (d *Dialog) switchTo(name string) bool {
	idx, ok := d.def.IndexOf(name)
	if !ok {
		d.logger.Warn("switch to unknown step ignored", "dialog", d.def.Name, "step", name)
		return false
	}
	d.next = idx
	return true
}

func (d *Dialog) advance() {
	if d.jumpTo != nil {
		d.next = *d.jumpTo
		d.jumpTo = nil
		return
	}
	if d.next < len(d.def.Steps) {
		d.next++
	}
}

// Send delivers msg through the transport. A zero ChatID is replaced by the dialog chat.
func (d *Dialog) Send(ctx context.Context, msg domain.OutboundMessage) (*domain.SentMessage, error) {
	if d.transport == nil {
		return nil, domain.ErrNoTransport
	}
	if msg.ChatID == 0 {
		msg.ChatID = d.chatID
	}
	sent, err := d.transport.SendMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return sent, nil
}

// Reply sends a plain text message to the dialog chat.
func (d *Dialog) Reply(ctx context.Context, text string) error {
	_, err := d.Send(ctx, domain.OutboundMessage{Text: text})
	return err
}

// AnswerCallback acknowledges a callback query.
func (d *Dialog) AnswerCallback(ctx context.Context, answer domain.CallbackAnswer) error {
	if d.transport == nil {
		return domain.ErrNoTransport
	}
	if err := d.transport.AnswerCallback(ctx, answer); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SendChatAction shows a chat action such as "typing" in the dialog chat.
func (d *Dialog) SendChatAction(ctx context.Context, action domain.ChatAction) error {
	if d.transport == nil {
		return domain.ErrNoTransport
	}
	if err := d.transport.SendChatAction(ctx, d.chatID, action); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return nil
}
