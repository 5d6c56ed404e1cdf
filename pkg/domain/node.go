package domain

// Node is the canonical, parsed representation of a configuration entity.
type Node interface {
	NodeKind() Kind
	// NodeName is empty for anonymous (embedded) nodes.
	NodeName() string
}

// Executor types recognised for embedded executors.
const (
	ExecutorDocker    = "docker"
	ExecutorMachine   = "machine"
	ExecutorMacOS     = "macos"
	ExecutorReference = "reference"
)

// EmbeddedExecutorTypes lists the document keys that mark an inline executor.
var EmbeddedExecutorTypes = []string{ExecutorMachine, ExecutorMacOS, ExecutorDocker}

// Executor is what a job runs on: either an inline executor or an ExecutorRef.
type Executor interface {
	Node
	ExecutorType() string
}

// DockerExecutor runs steps inside a container image.
type DockerExecutor struct {
	Image         string
	ResourceClass string
	Environment   map[string]string
}

func (e *DockerExecutor) NodeKind() Kind       { return KindExecutor }
func (e *DockerExecutor) NodeName() string     { return "" }
func (e *DockerExecutor) ExecutorType() string { return ExecutorDocker }

// MachineExecutor runs steps on a full virtual machine.
type MachineExecutor struct {
	Image         string
	ResourceClass string
}

func (e *MachineExecutor) NodeKind() Kind       { return KindExecutor }
func (e *MachineExecutor) NodeName() string     { return "" }
func (e *MachineExecutor) ExecutorType() string { return ExecutorMachine }

// MacOSExecutor runs steps on a macOS host with a given Xcode version.
type MacOSExecutor struct {
	Xcode         string
	ResourceClass string
}

func (e *MacOSExecutor) NodeKind() Kind       { return KindExecutor }
func (e *MacOSExecutor) NodeName() string     { return "" }
func (e *MacOSExecutor) ExecutorType() string { return ExecutorMacOS }

// ParameterSpec declares a parameter accepted by a reusable entity.
type ParameterSpec struct {
	Name        string   `mapstructure:"-"`
	Type        string   `mapstructure:"type"`
	Description string   `mapstructure:"description"`
	Default     any      `mapstructure:"default"`
	Enum        []string `mapstructure:"enum"`
}

// ReusableExecutor is a named executor definition.
type ReusableExecutor struct {
	Name       string
	Executor   Executor
	Parameters []ParameterSpec
}

func (e *ReusableExecutor) NodeKind() Kind   { return KindExecutor }
func (e *ReusableExecutor) NodeName() string { return e.Name }

// AsReusable wraps an inline executor into a named definition.
func AsReusable(name string, exec Executor) *ReusableExecutor {
	return &ReusableExecutor{Name: name, Executor: exec}
}

// ExecutorRef is a job's use of a named executor, with the arguments it passes.
type ExecutorRef struct {
	Name       string
	Parameters map[string]any
	// Definition is the node the name resolved to at parse time.
	Definition *ReusableExecutor
}

func (e *ExecutorRef) NodeKind() Kind       { return KindExecutor }
func (e *ExecutorRef) NodeName() string     { return e.Name }
func (e *ExecutorRef) ExecutorType() string { return ExecutorReference }

// Step is a single step inside a job or command: a command name plus arguments.
type Step struct {
	Command    string
	Parameters map[string]any
}

// Job is a unit of work bound to an executor.
type Job struct {
	Name       string
	Executor   Executor
	Steps      []Step
	Parameters []ParameterSpec
}

func (j *Job) NodeKind() Kind   { return KindJob }
func (j *Job) NodeName() string { return j.Name }

// Command is a reusable sequence of steps.
type Command struct {
	Name        string
	Description string
	Steps       []Step
	Parameters  []ParameterSpec
}

func (c *Command) NodeKind() Kind   { return KindCommand }
func (c *Command) NodeName() string { return c.Name }

// WorkflowJob is a job staged inside a workflow.
type WorkflowJob struct {
	// Source is the name of the job being staged.
	Source     string
	Name       string
	PreSteps   []Step
	PostSteps  []Step
	Parameters map[string]any
	// Job is the definition Source resolved to at parse time.
	Job *Job
}

func (w *WorkflowJob) NodeKind() Kind { return KindWorkflowJob }

func (w *WorkflowJob) NodeName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.Source
}

// Orb is an imported package exposing executors, jobs and commands.
// An orb that has not been materialized yet exposes nothing.
type Orb struct {
	Namespace string
	Version   string
	Executors []*ReusableExecutor
	Jobs      []*Job
	Commands  []*Command
}

func (o *Orb) NodeKind() Kind   { return KindOrb }
func (o *Orb) NodeName() string { return o.Namespace }

// Entities returns the orb's exposed nodes of a kind, in declaration order.
func (o *Orb) Entities(kind Kind) []Node {
	var out []Node
	switch kind {
	case KindExecutor:
		for _, e := range o.Executors {
			out = append(out, e)
		}
	case KindJob:
		for _, j := range o.Jobs {
			out = append(out, j)
		}
	case KindCommand:
		for _, c := range o.Commands {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds an exposed entity by its local name.
func (o *Orb) Lookup(kind Kind, name string) (Node, bool) {
	for _, n := range o.Entities(kind) {
		if n.NodeName() == name {
			return n, true
		}
	}
	return nil, false
}

// Materialized reports whether any entity has been merged into the orb.
func (o *Orb) Materialized() bool {
	return len(o.Executors)+len(o.Jobs)+len(o.Commands) > 0
}
