/*
Package ports defines the driven ports (interfaces) of the dialog engine.

These interfaces decouple the core logic from external implementations, allowing
dialogs to run against various storage backends and messaging clients.

# Key Interfaces

  - Store: Key-value cache holding serialized dialog state with a TTL.
  - Transport: Delivers outbound messages, callback answers and chat actions.
  - DistributedLocker: Provides distributed locking for concurrent access to a chat.
*/
package ports
