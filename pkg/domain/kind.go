package domain

// Kind tags a family of definitions. The string value doubles as the
// subscription type tag and the top-level document key.
type Kind string

const (
	KindExecutor Kind = "executors"
	KindJob      Kind = "jobs"
	KindCommand  Kind = "commands"

	// KindOrb tags imported packages. Orbs are not registrable definitions.
	KindOrb Kind = "orbs"

	// KindWorkflowJob is only understood by the parser (staged jobs).
	KindWorkflowJob Kind = "workflow_jobs"
)

// DefinitionKinds lists the kinds the registry stores, in document order.
var DefinitionKinds = []Kind{KindExecutor, KindJob, KindCommand}

// Registrable reports whether definitions of this kind can live in the registry.
func (k Kind) Registrable() bool {
	switch k {
	case KindExecutor, KindJob, KindCommand:
		return true
	}
	return false
}

// Noun returns the singular, human readable noun for the kind.
func (k Kind) Noun() string {
	switch k {
	case KindExecutor:
		return "executor"
	case KindJob:
		return "job"
	case KindCommand:
		return "command"
	case KindOrb:
		return "orb"
	case KindWorkflowJob:
		return "workflow job"
	default:
		return string(k)
	}
}
