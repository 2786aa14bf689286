package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventDialogActivate EventType = "dialog_activate"
	EventDialogComplete EventType = "dialog_complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Key       string    `json:"key"` // Session key of the dialog
}

// StepEvent represents entry into or exit from a dialog step.
type StepEvent struct {
	EventBase
	Dialog    string        `json:"dialog"`
	StepIndex int           `json:"step_index"`
	StepName  string        `json:"step_name"`
	Outcome   string        `json:"outcome,omitempty"` // Only set on leave
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// DialogEvent represents a dialog being activated or completed.
type DialogEvent struct {
	EventBase
	Dialog string `json:"dialog"`
	ChatID int64  `json:"chat_id"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnDialogActivate func(context.Context, *DialogEvent)
	OnDialogComplete func(context.Context, *DialogEvent)
}
