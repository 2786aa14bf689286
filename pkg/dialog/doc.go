/*
Package dialog implements the step-sequencing state machine of a Telegram conversation.

A Definition is the blueprint of a conversation: an ordered list of steps, the handlers
backing the bare steps and optional hooks. A Dialog is one running instance of a
Definition bound to a chat (and optionally a user). Every inbound update executes at
most one step:

	d := hello.Definition().New(chatID, dialog.WithTransport(tr))
	out, err := d.PerformStep(ctx, update)

Steps come in two shapes. A bare step names a Handler registered on the Definition; the
handler reports what should happen next by returning an Outcome (Advance, JumpTo,
SwitchTo, Retry or SwitchDialog). A configured step is pure data: it sends a message
and optionally switches, jumps or completes the dialog.

Dialogs are persisted as JSON snapshots holding only the cursor, the pending jump and
the Memory; the step list is rebuilt from the Definition found in a Registry.
*/
package dialog
