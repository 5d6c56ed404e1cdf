package pipeforge_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/pipeforge"
	"github.com/aretw0/pipeforge/pkg/domain"
)

// ExampleLoad shows how to load a document held in memory and inspect the
// definitions it declares.
func ExampleLoad() {
	ws, err := pipeforge.Load(context.Background(), []byte(`version: 2.1
executors:
  base:
    docker:
      - image: cimg/base:stable
jobs:
  lint:
    executor: base
    steps:
      - checkout
      - run: make lint
`))
	if err != nil {
		log.Fatal(err)
	}

	for def := range ws.Registry.AllOfKind(domain.KindJob) {
		job := def.Value.(*domain.Job)
		fmt.Printf("%s runs on %s with %d steps\n", def.Name, job.Executor.NodeName(), len(job.Steps))
	}
	// Output: lint runs on base with 2 steps
}
