/*
Package domain contains the core models of the pipeforge editor state core.

It defines the typed configuration nodes (executors, jobs, commands, workflow
jobs, imported orbs), the identities used to address them (kinds, references,
definitions, subscriptions) and the error taxonomy shared by every component.
This package is kept pure and free of I/O.

# Key Entities

  - Node: the canonical parsed form of a configuration entity.
  - Definition: a named, reusable node stored in the registry.
  - Reference: a parsed "name" or "namespace/name" reference string.
  - Subscription: a record that an orb entity must be materialized.
  - LifecycleHooks: observability callbacks fired by the editor session.
*/
package domain
