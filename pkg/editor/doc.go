/*
Package editor wires the editor state core together for one open document.

A Session owns the definition registry, the subscription ledger and the
navigation stack of a single editing session, plus the edited entity of every
open editing frame. Every save goes through the form bridge and lands in the
document sink before the editing frame is popped.

Sessions are single-writer: nothing in a Session is locked. A frame-changing
action issued while a promotion awaits confirmation is rejected with
ErrActionPending rather than queued. Use session.Manager to share sessions
between goroutines.
*/
package editor
