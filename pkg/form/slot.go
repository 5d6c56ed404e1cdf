package form

import (
	"fmt"
	"maps"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// SlotState tags the active variant of an ExecutorSlot.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotEmbedded
	SlotReferenced
)

func (s SlotState) String() string {
	switch s {
	case SlotEmbedded:
		return "embedded"
	case SlotReferenced:
		return "referenced"
	default:
		return "empty"
	}
}

// ExecutorSlot holds either an inline executor or the name of a reusable one.
// The zero value is empty.
type ExecutorSlot struct {
	state     SlotState
	embedded  domain.Executor
	reference string
	arguments map[string]any
}

// State returns the active variant.
func (s ExecutorSlot) State() SlotState {
	return s.state
}

// Embedded returns the inline executor, if that variant is active.
func (s ExecutorSlot) Embedded() (domain.Executor, bool) {
	return s.embedded, s.state == SlotEmbedded
}

// Reference returns the referenced name, if that variant is active.
func (s ExecutorSlot) Reference() (string, bool) {
	return s.reference, s.state == SlotReferenced
}

// Arguments returns the arguments passed to a referenced executor.
func (s ExecutorSlot) Arguments() map[string]any {
	return s.arguments
}

// SetEmbedded switches the slot to an inline executor, dropping any reference.
func (s *ExecutorSlot) SetEmbedded(exec domain.Executor) error {
	switch exec.(type) {
	case *domain.DockerExecutor, *domain.MachineExecutor, *domain.MacOSExecutor:
	case nil:
		return &domain.MissingRequiredFieldError{Field: "executor"}
	default:
		return fmt.Errorf("%w: %T cannot be embedded", domain.ErrUnsupportedVariant, exec)
	}
	*s = ExecutorSlot{state: SlotEmbedded, embedded: exec}
	return nil
}

// SetReference switches the slot to a named executor, dropping any inline
// executor. args may be nil.
func (s *ExecutorSlot) SetReference(name string, args map[string]any) error {
	if name == "" {
		return &domain.MissingRequiredFieldError{Field: "executor"}
	}
	*s = ExecutorSlot{state: SlotReferenced, reference: name, arguments: maps.Clone(args)}
	return nil
}

// Extract switches an embedded slot to a reference to name in one step and
// returns the inline executor it held. Any other variant is left untouched.
func (s *ExecutorSlot) Extract(name string) (domain.Executor, error) {
	if s.state != SlotEmbedded {
		return nil, fmt.Errorf("%w: slot is %s, not embedded", domain.ErrUnsupportedVariant, s.state)
	}
	if name == "" {
		return nil, &domain.MissingRequiredFieldError{Field: "executor"}
	}
	exec := s.embedded
	*s = ExecutorSlot{state: SlotReferenced, reference: name}
	return exec, nil
}

// Clear empties the slot.
func (s *ExecutorSlot) Clear() {
	*s = ExecutorSlot{}
}

// slotFrom builds the slot for an executor found in a node.
func slotFrom(exec domain.Executor) (ExecutorSlot, error) {
	var s ExecutorSlot
	switch e := exec.(type) {
	case nil:
		return s, nil
	case *domain.ExecutorRef:
		err := s.SetReference(e.Name, e.Parameters)
		return s, err
	default:
		err := s.SetEmbedded(e)
		return s, err
	}
}

// draft returns the executor usage the slot stands for, or nil when empty.
func (s ExecutorSlot) draft() domain.Executor {
	switch s.state {
	case SlotEmbedded:
		return s.embedded
	case SlotReferenced:
		return &domain.ExecutorRef{Name: s.reference, Parameters: maps.Clone(s.arguments)}
	default:
		return nil
	}
}
