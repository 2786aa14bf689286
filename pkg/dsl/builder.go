package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/tgdialogs/pkg/dialog"
)

// Builder manages the definition construction. Steps keep the order they are added in.
type Builder struct {
	def   dialog.Definition
	steps []*StepBuilder
}

// Define creates a new definition builder.
func Define(name string) *Builder {
	return &Builder{
		def: dialog.Definition{
			Name:     name,
			Handlers: make(map[string]dialog.Handler),
		},
	}
}

// Handle appends a bare step backed by h.
func (b *Builder) Handle(name string, h dialog.Handler) *Builder {
	b.def.Handlers[name] = h
	b.steps = append(b.steps, &StepBuilder{builder: b, bare: name})
	return b
}

// Add appends a configured step and returns its builder.
func (b *Builder) Add(name string) *StepBuilder {
	sb := &StepBuilder{builder: b, config: dialog.StepConfig{Name: name}}
	b.steps = append(b.steps, sb)
	return sb
}

// TTL sets how long an idle dialog is kept.
func (b *Builder) TTL(ttl time.Duration) *Builder {
	b.def.TTL = ttl
	return b
}

func (b *Builder) BeforeFirstStep(h dialog.Hook) *Builder {
	b.def.Hooks.BeforeFirstStep = h
	return b
}

func (b *Builder) AfterLastStep(h dialog.Hook) *Builder {
	b.def.Hooks.AfterLastStep = h
	return b
}

func (b *Builder) BeforeEveryStep(h dialog.StepHook) *Builder {
	b.def.Hooks.BeforeEveryStep = h
	return b
}

func (b *Builder) AfterEveryStep(h dialog.StepHook) *Builder {
	b.def.Hooks.AfterEveryStep = h
	return b
}

// Build compiles and validates the definition.
func (b *Builder) Build() (*dialog.Definition, error) {
	def := b.def
	def.Handlers = make(map[string]dialog.Handler, len(b.def.Handlers))
	for name, h := range b.def.Handlers {
		def.Handlers[name] = h
	}
	def.Steps = make([]dialog.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		def.Steps = append(def.Steps, sb.Build())
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build dialog %q: %w", def.Name, err)
	}
	return &def, nil
}

// MustBuild is Build for package-level definitions; it panics on an invalid definition.
func (b *Builder) MustBuild() *dialog.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
