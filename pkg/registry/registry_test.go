package registry_test

import (
	"slices"
	"testing"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func dockerDef(name, image string) *domain.ReusableExecutor {
	return domain.AsReusable(name, &domain.DockerExecutor{Image: image})
}

func names(seq []domain.Definition) []string {
	out := make([]string, 0, len(seq))
	for _, d := range seq {
		out = append(out, d.Name)
	}
	return out
}

func TestRegistry_ResolveLocal(t *testing.T) {
	reg := registry.New()
	def := dockerDef("docker-default", "cimg/base:stable")
	require.NoError(t, reg.Register(domain.KindExecutor, "docker-default", def, false))

	got, err := reg.Resolve(domain.KindExecutor, domain.Local("docker-default"))
	require.NoError(t, err)
	assert.Same(t, def, got)

	_, err = reg.Resolve(domain.KindJob, domain.Local("docker-default"))
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound, "lookups are kind-scoped")

	_, err = reg.Resolve(domain.KindExecutor, domain.Local("missing"))
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestRegistry_ResolveNamespaced(t *testing.T) {
	reg := registry.New()
	orbExec := dockerDef("default", "cimg/node:20.0")
	reg.ImportOrb(&domain.Orb{Namespace: "node", Version: "5.1.0", Executors: []*domain.ReusableExecutor{orbExec}})

	got, err := reg.ResolveString(domain.KindExecutor, "node/default")
	require.NoError(t, err)
	assert.Same(t, orbExec, got)

	t.Run("unknown namespace", func(t *testing.T) {
		_, err := reg.ResolveString(domain.KindExecutor, "python/default")
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := reg.ResolveString(domain.KindExecutor, "node/missing")
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})

	t.Run("wrong kind inside orb", func(t *testing.T) {
		_, err := reg.ResolveString(domain.KindJob, "node/default")
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})

	t.Run("unmaterialized orb", func(t *testing.T) {
		reg.ImportOrb(&domain.Orb{Namespace: "aws-cli", Version: "4.0"})
		_, err := reg.ResolveString(domain.KindExecutor, "aws-cli/default")
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})
}

func TestRegistry_Register(t *testing.T) {
	reg := registry.New()
	first := dockerDef("build", "a")
	second := dockerDef("build", "b")

	require.NoError(t, reg.Register(domain.KindExecutor, "build", first, false))
	version := reg.Version()

	err := reg.Register(domain.KindExecutor, "build", second, false)
	require.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.Equal(t, version, reg.Version(), "failed register must not mutate")

	got, _ := reg.Get(domain.KindExecutor, "build")
	assert.Same(t, first, got.Value)

	require.NoError(t, reg.Register(domain.KindExecutor, "build", second, true))
	got, _ = reg.Get(domain.KindExecutor, "build")
	assert.Same(t, second, got.Value)
	assert.Equal(t, 1, reg.Len(domain.KindExecutor))
}

func TestRegistry_RegisterRejectsMismatchedKind(t *testing.T) {
	reg := registry.New()

	err := reg.Register(domain.KindJob, "build", dockerDef("build", "a"), false)
	assert.ErrorIs(t, err, domain.ErrKindMismatch)

	err = reg.Register(domain.KindOrb, "node", &domain.Orb{Namespace: "node"}, false)
	assert.ErrorIs(t, err, domain.ErrKindMismatch)

	var missing *domain.MissingRequiredFieldError
	err = reg.Register(domain.KindExecutor, "", dockerDef("", "a"), false)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Field)
}

func TestRegistry_AllOfKindOrder(t *testing.T) {
	reg := registry.New()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(domain.KindExecutor, n, dockerDef(n, n), false))
	}

	seq := reg.AllOfKind(domain.KindExecutor)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(slices.Collect(seq)))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(slices.Collect(seq)), "sequence is restartable")

	// Overwrite keeps position, remove drops it.
	require.NoError(t, reg.Register(domain.KindExecutor, "zeta", dockerDef("zeta", "new"), true))
	assert.True(t, reg.Remove(domain.KindExecutor, "alpha"))
	assert.False(t, reg.Remove(domain.KindExecutor, "alpha"))
	assert.Equal(t, []string{"zeta", "mid"}, names(slices.Collect(reg.AllOfKind(domain.KindExecutor))))

	// Early break is honoured.
	count := 0
	for range reg.AllOfKind(domain.KindExecutor) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestRegistry_RenameKeepsPosition(t *testing.T) {
	reg := registry.New()
	for _, n := range []string{"build", "lint", "deploy"} {
		require.NoError(t, reg.Register(domain.KindExecutor, n, dockerDef(n, n), false))
	}

	renamed := dockerDef("build-all", "build")
	require.NoError(t, reg.Rename(domain.KindExecutor, "build", "build-all", renamed))
	assert.Equal(t, []string{"build-all", "lint", "deploy"}, names(slices.Collect(reg.AllOfKind(domain.KindExecutor))))

	got, err := reg.Resolve(domain.KindExecutor, domain.Local("build-all"))
	require.NoError(t, err)
	assert.Same(t, renamed, got)
	_, ok := reg.Get(domain.KindExecutor, "build")
	assert.False(t, ok)

	version := reg.Version()
	err = reg.Rename(domain.KindExecutor, "lint", "deploy", dockerDef("deploy", "x"))
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	err = reg.Rename(domain.KindExecutor, "missing", "other", dockerDef("other", "x"))
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	err = reg.Rename(domain.KindJob, "lint", "lint-all", dockerDef("lint-all", "x"))
	assert.ErrorIs(t, err, domain.ErrKindMismatch)
	assert.Equal(t, version, reg.Version(), "failed rename must not mutate")
	assert.Equal(t, []string{"build-all", "lint", "deploy"}, names(slices.Collect(reg.AllOfKind(domain.KindExecutor))))
}

func TestRegistry_Options(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(domain.KindExecutor, "local", dockerDef("local", "a"), false))
	reg.ImportOrb(&domain.Orb{Namespace: "node", Executors: []*domain.ReusableExecutor{dockerDef("default", "b")}})
	reg.ImportOrb(&domain.Orb{Namespace: "pending"})

	var values []string
	for _, o := range reg.Options(domain.KindExecutor) {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"local", "node/default"}, values)

	avail := reg.Available(domain.KindExecutor)
	assert.Equal(t, []string{"local", "node/default"}, names(avail))
}

func TestRegistry_Close(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(domain.KindCommand, "greet", &domain.Command{Name: "greet"}, false))
	reg.ImportOrb(&domain.Orb{Namespace: "node"})

	reg.Close()

	assert.Equal(t, 0, reg.Len(domain.KindCommand))
	_, ok := reg.Orb("node")
	assert.False(t, ok)
}

// A single-segment reference never reaches into an orb, even when an orb
// exposes an entity with the same local name.
func TestRegistry_LocalNeverResolvesToOrbEntity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z][a-z0-9-]{0,12}`).Draw(t, "name")
		ns := rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`).Draw(t, "namespace")
		withLocal := rapid.Bool().Draw(t, "withLocal")

		reg := registry.New()
		orbExec := dockerDef(name, "orb")
		reg.ImportOrb(&domain.Orb{Namespace: ns, Executors: []*domain.ReusableExecutor{orbExec}})

		var local *domain.ReusableExecutor
		if withLocal {
			local = dockerDef(name, "local")
			if err := reg.Register(domain.KindExecutor, name, local, false); err != nil {
				t.Fatalf("register: %v", err)
			}
		}

		got, err := reg.Resolve(domain.KindExecutor, domain.Local(name))
		if withLocal {
			if err != nil || got != domain.Node(local) {
				t.Fatalf("expected local definition, got %v (%v)", got, err)
			}
		} else if err == nil {
			t.Fatalf("local reference %q resolved to orb entity %v", name, got)
		}

		nsGot, err := reg.Resolve(domain.KindExecutor, domain.Namespaced(ns, name))
		if err != nil || nsGot != domain.Node(orbExec) {
			t.Fatalf("expected orb entity, got %v (%v)", nsGot, err)
		}
	})
}
