/*
Package pipeforge edits CI pipeline configuration documents through typed,
validated forms.

A document declares reusable executors, commands and jobs, imports orbs
(published packages of the same), and stages jobs into workflows. pipeforge
parses it into typed nodes, keeps the named definitions in a registry, and
lets a user edit any node through a stack of nested editing frames. Saving a
frame reparses the edited form so only valid nodes reach the document.

# Concept

  - Workspace: one loaded document plus its registry.
  - editor.Session: the navigation stack, the form bridge, the executor
    promotion workflow and the subscription ledger of one user.
  - Orb sources: where imported orbs are fetched from (memory, Redis, or a
    Loam directory).

# Usage

	ws, err := pipeforge.Open(ctx, ".circleci/config.yml",
		pipeforge.WithOrbSource(catalog),
	)
	if err != nil {
		log.Fatal(err)
	}

	s := ws.Session(editor.WithConfirmer(confirmer))
	_ = s.EditDefinition(ctx, domain.KindJob, "build")
	_, _ = s.Promote(ctx)   // extract the inline executor
	_, _ = s.Submit(ctx)    // commit the job
	_ = ws.Save()
*/
package pipeforge
