/*
Package navigation implements the editor's stack of editing frames.

Each frame pairs a component identity with the props it was opened with and
an optional pass-through payload forwarded to whichever frame eventually calls
back (for example, telling a nested "choose a step type" menu which list it
inserts into). Breadcrumbs are derived from the full stack on every call.

A Stack is scoped to one editor session: it is created when the editor opens
and closed with it. It is never a process-wide singleton.
*/
package navigation
