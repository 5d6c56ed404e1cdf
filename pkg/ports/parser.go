package ports

import "github.com/aretw0/pipeforge/pkg/domain"

// Parser is the configuration model's parser/serializer.
type Parser interface {
	// Parse converts a raw value (maps, slices, scalars) of the given kind into
	// a typed node. available is the ordered resolution context: the registry
	// contents that references inside raw may point at.
	Parse(kind domain.Kind, raw any, available []domain.Definition) (domain.Node, error)

	// Serialize converts a typed node back into a raw value.
	Serialize(node domain.Node) (any, error)
}
