/*
Package tgdialogs is a dialog engine for Telegram bots.

A dialog is an ordered list of steps bound to a chat, and optionally to one user of that
chat. Each incoming update runs the current step of the active dialog; the dialog is then
persisted in a key-value store until the next update arrives or the dialog completes.

# Concept

Dialog definitions are immutable and shared. A running dialog carries only its cursor,
a pending jump and a small memory, which is all that gets serialized between updates.
Steps are either handler steps, Go functions returning an Outcome, or configured steps,
declarative messages that can be written in YAML.

# Packages

  - pkg/dialog: definitions, the step state machine, memory and the flow loader.
  - pkg/dsl: a fluent builder for definitions.
  - pkg/session: the resolver, the repository and the Manager that serializes updates per chat.
  - pkg/adapters: stores (memory, file, redis, mongo), transports (telebot, tgbotapi) and the webhook server.
  - pkg/persistence/middleware: store decorators (key prefix, encryption).
  - pkg/observability: Prometheus metrics fed by lifecycle hooks.

# Usage

	def := dsl.Define("survey").
		Handle("ask", askName).
		Handle("thanks", thank).
		MustBuild()

	repo := session.NewRepository(memory.NewStore(), dialog.NewRegistry(def), "")
	mgr := session.NewManager(repo, session.WithTransport(transport))

	_ = mgr.Activate(ctx, def.New(chatID))
	_ = mgr.ProcessUpdate(ctx, update)
*/
package tgdialogs
