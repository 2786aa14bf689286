/*
Package observability provides tools for monitoring the dialog engine.

Everything here is built on domain.LifecycleHooks: Prometheus metrics, structured logging
of step transitions, and Combine to feed several consumers from one Manager.
*/
package observability
