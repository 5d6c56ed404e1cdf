/*
Package ports defines the driven ports (interfaces) of the editor state core.

These interfaces decouple the core from the collaborators it only talks to:
the configuration parser/serializer, the confirmation and notification UI,
the document tree that receives committed nodes, and the orb catalog used to
materialize imported packages.

# Key Interfaces

  - Parser: converts raw configuration values into typed nodes and back.
  - Confirmer: presents a yes/no gate and invokes the matching callback.
  - Notifier: fire-and-forget user-visible notifications.
  - DocumentSink: receives every node committed by a successful save.
  - OrbSource: fetches the exposed entities of an imported orb.
*/
package ports
