package domain

import (
	"fmt"
	"strings"
)

// Reference is a parsed reference string: either Local ("name") or
// Namespaced ("namespace/name"). It is decided once, at the boundary.
type Reference struct {
	Namespace string
	Name      string
}

// Local builds a single-segment reference.
func Local(name string) Reference {
	return Reference{Name: name}
}

// Namespaced builds a two-segment reference into an imported orb.
func Namespaced(namespace, name string) Reference {
	return Reference{Namespace: namespace, Name: name}
}

// ParseReference splits a raw reference string.
// Empty segments and more than two segments are rejected.
func ParseReference(raw string) (Reference, error) {
	parts := strings.Split(raw, "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Reference{}, fmt.Errorf("%w: empty reference", ErrReferenceNotFound)
		}
		return Local(parts[0]), nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Reference{}, fmt.Errorf("%w: malformed reference %q", ErrReferenceNotFound, raw)
		}
		return Namespaced(parts[0], parts[1]), nil
	default:
		return Reference{}, fmt.Errorf("%w: malformed reference %q", ErrReferenceNotFound, raw)
	}
}

// IsNamespaced reports whether the reference points into an orb.
func (r Reference) IsNamespaced() bool {
	return r.Namespace != ""
}

func (r Reference) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}
