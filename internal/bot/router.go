// Package bot routes incoming updates: active dialogs first, then dialog triggers, then a
// fallback reply.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/ports"
	"github.com/aretw0/tgdialogs/pkg/session"
)

// FallbackText is sent when an update matches neither an active dialog nor a trigger.
const FallbackText = "There is no active dialog at this moment. You can also start a new dialog by typing <code>hello bot</code> in the chat."

// Trigger decides whether a message starts a dialog.
type Trigger func(u *domain.Update) bool

// Command matches messages whose text is exactly cmd, with or without a @botname suffix.
func Command(cmd string) Trigger {
	return func(u *domain.Update) bool {
		if u.Message == nil {
			return false
		}
		text := strings.TrimSpace(u.Message.Text)
		if at := strings.IndexByte(text, '@'); at > 0 && strings.HasPrefix(text, "/") {
			text = text[:at]
		}
		return text == cmd
	}
}

// Contains matches messages whose text contains substr.
func Contains(substr string) Trigger {
	return func(u *domain.Update) bool {
		return u.Message != nil && strings.Contains(u.Message.Text, substr)
	}
}

// Any matches when at least one of the triggers does.
func Any(triggers ...Trigger) Trigger {
	return func(u *domain.Update) bool {
		for _, t := range triggers {
			if t(u) {
				return true
			}
		}
		return false
	}
}

type route struct {
	trigger Trigger
	def     *dialog.Definition
}

// Router dispatches updates to the dialog manager.
type Router struct {
	manager   *session.Manager
	transport ports.Transport
	routes    []route
	fallback  string
	logger    *slog.Logger
}

// Option configures the Router.
type Option func(*Router)

// WithFallback replaces the fallback text. An empty text disables the fallback reply.
func WithFallback(text string) Option {
	return func(r *Router) {
		r.fallback = text
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a router without routes.
func NewRouter(manager *session.Manager, transport ports.Transport, opts ...Option) *Router {
	r := &Router{
		manager:   manager,
		transport: transport,
		fallback:  FallbackText,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route starts def in the chat when trigger matches. Routes are tried in registration order.
// The definition must also be registered in the manager's registry.
func (r *Router) Route(trigger Trigger, def *dialog.Definition) *Router {
	r.routes = append(r.routes, route{trigger: trigger, def: def})
	return r
}

// HandleUpdate continues the active dialog of u, or starts a dialog whose trigger matches,
// or replies with the fallback text.
func (r *Router) HandleUpdate(ctx context.Context, u *domain.Update) error {
	chat := u.Chat()
	if chat == nil {
		r.logger.Debug("update without chat ignored", "update_id", u.UpdateID)
		return nil
	}

	active, err := r.manager.HasActiveDialog(ctx, u)
	if err != nil {
		return err
	}
	if active {
		return r.manager.ProcessUpdate(ctx, u)
	}

	for _, rt := range r.routes {
		if !rt.trigger(u) {
			continue
		}
		r.logger.Info("starting dialog", "dialog", rt.def.Name, "chat_id", chat.ID)
		if err := r.manager.Activate(ctx, rt.def.New(chat.ID)); err != nil {
			return err
		}
		return r.manager.ProcessUpdate(ctx, u)
	}

	if r.fallback == "" || u.Message == nil {
		return nil
	}
	// Fails when the user blocked the bot; the caller logs it.
	_, err = r.transport.SendMessage(ctx, domain.OutboundMessage{
		ChatID:    chat.ID,
		Text:      r.fallback,
		ParseMode: domain.ParseModeHTML,
	})
	return err
}
