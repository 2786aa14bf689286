/*
Package session implements the lifecycle of active dialogs.

A Resolver maps an inbound update to the key of the dialog it belongs to: the chat-bound
key ("{chat}") wins over the user-bound key ("{chat}-{user}"). A Repository persists
dialog snapshots in a ports.Store under those keys. The Manager ties them together:
it activates dialogs, processes updates one step at a time, follows step and dialog
switches, and removes dialogs as soon as they complete.

Updates of the same chat are serialized inside one process with reference-counted
locks; a ports.DistributedLocker extends that guarantee across replicas.
*/
package session
