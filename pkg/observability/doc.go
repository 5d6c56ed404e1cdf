/*
Package observability turns editor lifecycle events into Prometheus metrics
and structured log lines.

Hooks are plain domain.LifecycleHooks values, so they can be combined with
Chain and handed to pipeforge.WithLifecycleHooks or editor.WithLifecycleHooks.
*/
package observability
