package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Document keys.
const (
	keyName          = "name"
	keyExecutor      = "executor"
	keySteps         = "steps"
	keyParameters    = "parameters"
	keyDescription   = "description"
	keyResourceClass = "resource_class"
	keyPreSteps      = "pre-steps"
	keyPostSteps     = "post-steps"
)

type dockerImage struct {
	Image       string            `mapstructure:"image"`
	Environment map[string]string `mapstructure:"environment"`
}

type machineConfig struct {
	Image string `mapstructure:"image"`
}

type macosConfig struct {
	Xcode string `mapstructure:"xcode"`
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// parseEmbeddedExecutor returns the inline executor declared in m, or nil if
// m declares none. Declaring more than one is an error.
func parseEmbeddedExecutor(m map[string]any) (domain.Executor, error) {
	var found []string
	for _, k := range domain.EmbeddedExecutorTypes {
		if _, ok := m[k]; ok {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		return nil, fmt.Errorf("conflicting executor types %v", found)
	}

	rc, _ := m[keyResourceClass].(string)
	switch found[0] {
	case domain.ExecutorDocker:
		images, ok := m[domain.ExecutorDocker].([]any)
		if !ok || len(images) == 0 {
			return nil, fmt.Errorf("docker executor needs at least one image")
		}
		var primary dockerImage
		if err := decode(images[0], &primary); err != nil {
			return nil, fmt.Errorf("docker image: %w", err)
		}
		if primary.Image == "" {
			return nil, &domain.MissingRequiredFieldError{Field: "docker.image"}
		}
		return &domain.DockerExecutor{Image: primary.Image, ResourceClass: rc, Environment: primary.Environment}, nil

	case domain.ExecutorMachine:
		var cfg machineConfig
		switch v := m[domain.ExecutorMachine].(type) {
		case bool:
			// "machine: true" selects the default image.
		default:
			if err := decode(v, &cfg); err != nil {
				return nil, fmt.Errorf("machine executor: %w", err)
			}
		}
		return &domain.MachineExecutor{Image: cfg.Image, ResourceClass: rc}, nil

	default:
		var cfg macosConfig
		if err := decode(m[domain.ExecutorMacOS], &cfg); err != nil {
			return nil, fmt.Errorf("macos executor: %w", err)
		}
		if cfg.Xcode == "" {
			return nil, &domain.MissingRequiredFieldError{Field: "macos.xcode"}
		}
		return &domain.MacOSExecutor{Xcode: cfg.Xcode, ResourceClass: rc}, nil
	}
}

// parseExecutorRef decodes "executor: name" or "executor: {name: ..., arg: ...}"
// and binds it to the matching definition in available.
func parseExecutorRef(raw any, available []domain.Definition) (*domain.ExecutorRef, error) {
	ref := &domain.ExecutorRef{}
	switch v := raw.(type) {
	case string:
		ref.Name = v
	default:
		m, err := asMap(raw)
		if err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		name, err := requiredString(m, keyName)
		if err != nil {
			return nil, err
		}
		ref.Name = name
		for k, val := range m {
			if k == keyName {
				continue
			}
			if ref.Parameters == nil {
				ref.Parameters = make(map[string]any)
			}
			ref.Parameters[k] = val
		}
	}
	if ref.Name == "" {
		return nil, &domain.MissingRequiredFieldError{Field: keyExecutor}
	}

	def, ok := lookup(available, ref.Name)
	if !ok {
		return nil, fmt.Errorf("%w: executor %q", domain.ErrReferenceNotFound, ref.Name)
	}
	reusable, ok := def.(*domain.ReusableExecutor)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T, not an executor definition", domain.ErrUnsupportedVariant, ref.Name, def)
	}
	ref.Definition = reusable
	return ref, nil
}

func lookup(available []domain.Definition, name string) (domain.Node, bool) {
	for _, d := range available {
		if d.Name == name {
			return d.Value, true
		}
	}
	return nil, false
}

// serializeExecutorUsage encodes the executor part of a job.
func serializeExecutorUsage(exec domain.Executor) (map[string]any, error) {
	switch e := exec.(type) {
	case *domain.ExecutorRef:
		if len(e.Parameters) == 0 {
			return map[string]any{keyExecutor: e.Name}, nil
		}
		ref := maps.Clone(e.Parameters)
		ref[keyName] = e.Name
		return map[string]any{keyExecutor: ref}, nil
	case *domain.DockerExecutor:
		image := map[string]any{"image": e.Image}
		if len(e.Environment) > 0 {
			image["environment"] = maps.Clone(e.Environment)
		}
		return withResourceClass(map[string]any{domain.ExecutorDocker: []any{image}}, e.ResourceClass), nil
	case *domain.MachineExecutor:
		var machine any = true
		if e.Image != "" {
			machine = map[string]any{"image": e.Image}
		}
		return withResourceClass(map[string]any{domain.ExecutorMachine: machine}, e.ResourceClass), nil
	case *domain.MacOSExecutor:
		return withResourceClass(map[string]any{domain.ExecutorMacOS: map[string]any{"xcode": e.Xcode}}, e.ResourceClass), nil
	default:
		return nil, fmt.Errorf("%w: executor %T", domain.ErrUnsupportedVariant, exec)
	}
}

func withResourceClass(m map[string]any, rc string) map[string]any {
	if rc != "" {
		m[keyResourceClass] = rc
	}
	return m
}

func serializeReusableExecutor(e *domain.ReusableExecutor) (map[string]any, error) {
	if _, ok := e.Executor.(*domain.ExecutorRef); ok {
		return nil, fmt.Errorf("%w: executor definition %q cannot wrap a reference", domain.ErrUnsupportedVariant, e.Name)
	}
	out, err := serializeExecutorUsage(e.Executor)
	if err != nil {
		return nil, err
	}
	out[keyName] = e.Name
	if len(e.Parameters) > 0 {
		out[keyParameters] = serializeParameterSpecs(e.Parameters)
	}
	return out, nil
}

// parseParameterSpecs decodes a parameters block. Specs are returned sorted
// by name since the block is a mapping.
func parseParameterSpecs(raw any) ([]domain.ParameterSpec, error) {
	if raw == nil {
		return nil, nil
	}
	m, err := asMap(raw)
	if err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	specs := make([]domain.ParameterSpec, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		var spec domain.ParameterSpec
		if err := decode(m[name], &spec); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		spec.Name = name
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, nil
	}
	return specs, nil
}

func serializeParameterSpecs(specs []domain.ParameterSpec) map[string]any {
	out := make(map[string]any, len(specs))
	for _, s := range specs {
		entry := map[string]any{}
		if s.Type != "" {
			entry["type"] = s.Type
		}
		if s.Description != "" {
			entry["description"] = s.Description
		}
		if s.Default != nil {
			entry["default"] = s.Default
		}
		if len(s.Enum) > 0 {
			entry["enum"] = slices.Clone(s.Enum)
		}
		out[s.Name] = entry
	}
	return out
}

// asMap normalises YAML mappings. Older decoders produce map[any]any.
func asMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[ks] = val
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("expected a mapping, got nothing")
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
}

func requiredString(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", &domain.MissingRequiredFieldError{Field: key}
	}
	return s, nil
}
