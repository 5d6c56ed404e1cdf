package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/registry"
)

// StagingKeys are the workflow settings a staged job may carry besides the
// source job's parameters.
var StagingKeys = []string{"requires", "context", "filters", "matrix", "type", "serial-group"}

// Check validates every argument list of doc: executor references of jobs,
// staged jobs of workflows and steps invoking commands. Commands are
// resolved through reg so orb commands are checked too; steps naming
// anything else are built-ins and are skipped. The result joins one
// *UsageError per offending place.
func Check(doc *document.Document, reg *registry.Registry) error {
	c := &checker{reg: reg}
	for _, cmd := range doc.Commands {
		c.steps(document.NodeID(domain.KindCommand, cmd.Name), cmd.Steps)
	}
	for _, j := range doc.Jobs {
		at := document.NodeID(domain.KindJob, j.Name)
		if ref, ok := j.Executor.(*domain.ExecutorRef); ok {
			c.executor(at, ref)
		}
		c.steps(at, j.Steps)
	}
	for _, wf := range doc.Workflows {
		for i, wj := range wf.Jobs {
			at := document.WorkflowJobID(wf.Name, i)
			c.staged(at, wj)
			c.steps(at+"/pre-steps", wj.PreSteps)
			c.steps(at+"/post-steps", wj.PostSteps)
		}
	}
	return errors.Join(c.errs...)
}

type checker struct {
	reg  *registry.Registry
	errs []error
}

func (c *checker) validate(at, target string, specs []domain.ParameterSpec, args map[string]any, ignore ...string) {
	s, err := FromSpecs(specs)
	if err == nil {
		err = Validate(s, args, ignore...)
	}
	if err != nil {
		c.errs = append(c.errs, &UsageError{At: at, Target: target, Err: err})
	}
}

func (c *checker) executor(at string, ref *domain.ExecutorRef) {
	def := ref.Definition
	if def == nil {
		node, err := c.reg.ResolveString(domain.KindExecutor, ref.Name)
		if err != nil {
			c.errs = append(c.errs, &UsageError{At: at, Target: ref.Name, Err: err})
			return
		}
		def = node.(*domain.ReusableExecutor)
	}
	c.validate(at, ref.Name, def.Parameters, ref.Parameters)
}

func (c *checker) staged(at string, wj *domain.WorkflowJob) {
	job := wj.Job
	if job == nil {
		node, err := c.reg.ResolveString(domain.KindJob, wj.Source)
		if err != nil {
			c.errs = append(c.errs, &UsageError{At: at, Target: wj.Source, Err: err})
			return
		}
		job = node.(*domain.Job)
	}
	c.validate(at, wj.Source, job.Parameters, wj.Parameters, StagingKeys...)
}

func (c *checker) steps(at string, steps []domain.Step) {
	for i, step := range steps {
		node, err := c.reg.ResolveString(domain.KindCommand, step.Command)
		if err != nil {
			continue
		}
		cmd, ok := node.(*domain.Command)
		if !ok {
			continue
		}
		c.validate(fmt.Sprintf("%s/steps/%d", at, i), step.Command, cmd.Parameters, step.Parameters)
	}
}
