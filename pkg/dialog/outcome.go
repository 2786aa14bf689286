package dialog

// OutcomeKind tells the engine how a step ended.
type OutcomeKind int

const (
	// OutcomeAdvance moves the cursor to the next step.
	OutcomeAdvance OutcomeKind = iota
	// OutcomeJump moves the cursor to the named step once the current step is done.
	OutcomeJump
	// OutcomeSwitchStep moves the cursor to the named step immediately and asks the
	// caller to run it against the same update.
	OutcomeSwitchStep
	// OutcomeRetry leaves the cursor untouched; the same step runs on the next update.
	OutcomeRetry
	// OutcomeSwitchDialog replaces the running dialog with another one.
	OutcomeSwitchDialog
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdvance:
		return "advance"
	case OutcomeJump:
		return "jump"
	case OutcomeSwitchStep:
		return "switch_step"
	case OutcomeRetry:
		return "retry"
	case OutcomeSwitchDialog:
		return "switch_dialog"
	default:
		return "unknown"
	}
}

// Outcome is the result of a step.
type Outcome struct {
	Kind OutcomeKind
	// Step is the target of a jump or a switch.
	Step string
	// Dialog is the replacement of a dialog switch.
	Dialog *Dialog
}

// Advance continues with the next step.
func Advance() Outcome { return Outcome{Kind: OutcomeAdvance} }

// JumpTo continues with the named step after the current one finishes.
func JumpTo(step string) Outcome { return Outcome{Kind: OutcomeJump, Step: step} }

// SwitchTo runs the named step right away with the same update.
func SwitchTo(step string) Outcome { return Outcome{Kind: OutcomeSwitchStep, Step: step} }

// Retry keeps the cursor on the current step, typically because the update was not
// what the step expected.
func Retry() Outcome { return Outcome{Kind: OutcomeRetry} }

// SwitchDialog forgets the current dialog and processes the update with next.
func SwitchDialog(next *Dialog) Outcome { return Outcome{Kind: OutcomeSwitchDialog, Dialog: next} }
