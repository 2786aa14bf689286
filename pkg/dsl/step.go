package dsl

import (
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
)

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	builder *Builder
	bare    string
	config  dialog.StepConfig
}

func (s *StepBuilder) message() *domain.OutboundMessage {
	if s.config.SendMessage == nil {
		s.config.SendMessage = &domain.OutboundMessage{}
	}
	return s.config.SendMessage
}

// Text sets the message sent by the step.
func (s *StepBuilder) Text(text string) *StepBuilder {
	s.message().Text = text
	return s
}

// HTML sets the message and marks it as HTML.
func (s *StepBuilder) HTML(text string) *StepBuilder {
	m := s.message()
	m.Text = text
	m.ParseMode = domain.ParseModeHTML
	return s
}

// ParseMode sets the parse mode of the message.
func (s *StepBuilder) ParseMode(mode string) *StepBuilder {
	s.message().ParseMode = mode
	return s
}

// Keyboard attaches an inline keyboard to the message.
func (s *StepBuilder) Keyboard(rows ...[]domain.InlineButton) *StepBuilder {
	s.message().Keyboard = domain.NewInlineKeyboard(rows...)
	return s
}

// Option sets a provider-specific message parameter.
func (s *StepBuilder) Option(key string, value any) *StepBuilder {
	m := s.message()
	if m.Options == nil {
		m.Options = make(map[string]any)
	}
	m.Options[key] = value
	return s
}

// Go schedules a jump to target once the step is done.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.config.Control.NextStep = target
	return s
}

// Switch moves to target immediately, running it with the same update.
func (s *StepBuilder) Switch(target string) *StepBuilder {
	s.config.Control.Switch = target
	return s
}

// Terminal completes the dialog after the step.
func (s *StepBuilder) Terminal() *StepBuilder {
	s.config.Control.Complete = true
	return s
}

// Add appends the next configured step.
func (s *StepBuilder) Add(name string) *StepBuilder {
	return s.builder.Add(name)
}

// Handle appends the next bare step.
func (s *StepBuilder) Handle(name string, h dialog.Handler) *Builder {
	return s.builder.Handle(name, h)
}

// Builder returns the parent builder.
func (s *StepBuilder) Builder() *Builder {
	return s.builder
}

// Build returns the underlying step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() dialog.Step {
	if s.bare != "" {
		return dialog.Bare(s.bare)
	}
	cfg := s.config
	if cfg.SendMessage != nil {
		m := *cfg.SendMessage
		cfg.SendMessage = &m
	}
	return dialog.Configured(cfg)
}
