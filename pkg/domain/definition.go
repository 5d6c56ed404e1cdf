package domain

// Definition is a named reusable entity held by the registry.
type Definition struct {
	Name  string
	Kind  Kind
	Value Node
}

// Subscription records that an orb entity was referenced and must be
// materialized before its fields can be rendered.
type Subscription struct {
	Name string `json:"name" yaml:"name"`
	Type Kind   `json:"type" yaml:"type"`
}
