// Package schema checks the arguments passed to parameterized entities.
//
// Executors, jobs and commands declare parameters with a type and an
// optional default. Every place that uses one of them may pass arguments:
// an executor reference, a staged job in a workflow, or a step invoking a
// command. A Schema is built from the declarations and validates those
// arguments.
//
// Basic usage:
//
//	s, err := schema.FromSpecs(job.Parameters)
//	if err != nil {
//	    // Unknown parameter type
//	}
//	if err := schema.Validate(s, staged.Parameters); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
//
// Values holding a pipeline interpolation such as "<< parameters.tag >>" are
// only known at run time and are accepted for any type.
//
// Check walks a whole document and reports every argument problem found.
package schema
