package dialog

import (
	"fmt"

	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Step is an entry of a Definition. Exactly one of Handler and Config must be set.
type Step struct {
	// Handler names a bare step backed by Definition.Handlers.
	Handler string
	// Config describes a configured step.
	Config *StepConfig
}

// StepConfig is a declarative step: send a message, then optionally move the cursor.
type StepConfig struct {
	Name        string                  `mapstructure:"name" yaml:"name"`
	SendMessage *domain.OutboundMessage `mapstructure:"-" yaml:"-"`
	Control     Control                 `mapstructure:"control" yaml:"control"`
}

// Control holds the cursor directives of a configured step.
type Control struct {
	// Switch moves the cursor immediately; the target runs with the same update.
	Switch string `mapstructure:"switch" yaml:"switch,omitempty"`
	// NextStep is a deferred jump applied after the step.
	NextStep string `mapstructure:"nextStep" yaml:"nextStep,omitempty"`
	// Complete finishes the dialog after the step.
	Complete bool `mapstructure:"complete" yaml:"complete,omitempty"`
}

// Bare returns a step dispatched to the named handler.
func Bare(handler string) Step {
	return Step{Handler: handler}
}

// Configured returns a declarative step.
func Configured(cfg StepConfig) Step {
	return Step{Config: &cfg}
}

// Name returns the name the step is addressed by in jumps and switches.
func (s Step) Name() string {
	if s.Config != nil {
		return s.Config.Name
	}
	return s.Handler
}

func (s Step) isBare() bool {
	return s.Handler != "" && s.Config == nil
}

func (s Step) isConfigured() bool {
	return s.Config != nil && s.Handler == ""
}

// rawStep accepts both the current layout and the flat keys of older flow files.
type rawStep struct {
	Name        string         `mapstructure:"name"`
	SendMessage any            `mapstructure:"sendMessage"`
	Control     Control        `mapstructure:"control"`
	Response    string         `mapstructure:"response"`
	Options     map[string]any `mapstructure:"options"`
	Switch      string         `mapstructure:"switch"`
	NextStep    string         `mapstructure:"nextStep"`
	Jump        string         `mapstructure:"jump"`
	End         bool           `mapstructure:"end"`
}

// DecodeStep builds a Step from its loosely typed form: a string is a bare step and a
// mapping is a configured step.
func DecodeStep(raw any) (Step, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return Step{}, fmt.Errorf("%w: empty step name", domain.ErrInvalidStep)
		}
		return Bare(v), nil
	case Step:
		return v, nil
	case StepConfig:
		return Configured(v), nil
	case map[string]any:
		return decodeConfiguredStep(v)
	default:
		return Step{}, fmt.Errorf("%w: unknown format of the step (%T)", domain.ErrInvalidStep, raw)
	}
}

func decodeConfiguredStep(input map[string]any) (Step, error) {
	var rs rawStep
	if err := decode(input, &rs); err != nil {
		return Step{}, fmt.Errorf("%w: %v", domain.ErrInvalidStep, err)
	}

	cfg := StepConfig{Name: rs.Name, Control: rs.Control}

	switch msg := rs.SendMessage.(type) {
	case nil:
		if rs.Response != "" || len(rs.Options) > 0 {
			fields := make(map[string]any, len(rs.Options)+1)
			for k, v := range rs.Options {
				fields[k] = v
			}
			fields["text"] = rs.Response
			m, err := decodeMessage(fields)
			if err != nil {
				return Step{}, fmt.Errorf("%w: step %q: %v", domain.ErrInvalidStep, rs.Name, err)
			}
			cfg.SendMessage = m
		}
	case string:
		cfg.SendMessage = &domain.OutboundMessage{Text: msg}
	case map[string]any:
		m, err := decodeMessage(msg)
		if err != nil {
			return Step{}, fmt.Errorf("%w: step %q: %v", domain.ErrInvalidStep, rs.Name, err)
		}
		cfg.SendMessage = m
	default:
		return Step{}, fmt.Errorf("%w: step %q: sendMessage must be a string or a mapping, got %T",
			domain.ErrInvalidStep, rs.Name, rs.SendMessage)
	}

	if cfg.Control.Switch == "" {
		cfg.Control.Switch = rs.Switch
	}
	if cfg.Control.NextStep == "" {
		cfg.Control.NextStep = rs.NextStep
	}
	if cfg.Control.NextStep == "" {
		cfg.Control.NextStep = rs.Jump
	}
	cfg.Control.Complete = cfg.Control.Complete || rs.End

	return Configured(cfg), nil
}

// decodeMessage maps sendMessage fields onto an OutboundMessage. Only inline keyboards are
// modelled; any other reply_markup (reply keyboards, force_reply, remove_keyboard) is kept
// verbatim in Options for the transport.
func decodeMessage(fields map[string]any) (*domain.OutboundMessage, error) {
	var passthrough any
	if rm, ok := fields["reply_markup"]; ok && !isInlineKeyboard(rm) {
		switch rm.(type) {
		case map[string]any, string:
		default:
			return nil, fmt.Errorf("reply_markup must be a mapping or a JSON string, got %T", rm)
		}
		rest := make(map[string]any, len(fields))
		for k, v := range fields {
			if k != "reply_markup" {
				rest[k] = v
			}
		}
		fields, passthrough = rest, rm
	}

	var m domain.OutboundMessage
	if err := decode(fields, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if passthrough != nil {
		if m.Options == nil {
			m.Options = make(map[string]any)
		}
		m.Options["reply_markup"] = passthrough
	}
	return &m, nil
}

func isInlineKeyboard(v any) bool {
	kb, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = kb["inline_keyboard"]
	return ok
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
