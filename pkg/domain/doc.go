/*
Package domain contains the core domain models shared by the dialog engine and its adapters.

It defines the inbound Telegram update shape the engine routes on, the outbound message
payloads the engine asks a transport to deliver, the lifecycle events emitted while a
dialog runs, and the sentinel errors used across packages. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Update: An inbound event (message, callback query, membership change...).
  - OutboundMessage: A message the engine asks the transport to send.
  - LifecycleHooks: Callbacks for observing step and dialog transitions.
*/
package domain
