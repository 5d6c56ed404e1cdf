package ports

import (
	"context"
	"testing"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunOrbCatalogContract runs a suite of tests to verify that an OrbCatalog
// implementation adheres to the defined interface contract.
func RunOrbCatalogContract(t *testing.T, catalog OrbCatalog) {
	ctx := context.Background()

	orb := &domain.Orb{
		Namespace: "contract",
		Version:   "1.2.3",
		Executors: []*domain.ReusableExecutor{
			{
				Name:     "default",
				Executor: &domain.DockerExecutor{Image: "cimg/base:stable"},
				Parameters: []domain.ParameterSpec{
					{Name: "tag", Type: "string", Default: "stable"},
				},
			},
		},
		Jobs: []*domain.Job{
			{
				Name:     "test",
				Executor: &domain.MachineExecutor{Image: "ubuntu-2204:current"},
				Steps:    []domain.Step{{Command: "checkout"}},
			},
		},
		Commands: []*domain.Command{
			{
				Name:  "install",
				Steps: []domain.Step{{Command: "run", Parameters: map[string]any{"command": "make deps"}}},
			},
		},
	}

	t.Run("Publish and Fetch", func(t *testing.T) {
		err := catalog.Publish(ctx, orb)
		require.NoError(t, err, "Publish should not return error")

		loaded, err := catalog.Fetch(ctx, "contract")
		require.NoError(t, err, "Fetch should not return error")
		assert.Equal(t, orb.Version, loaded.Version)

		exec, ok := loaded.Lookup(domain.KindExecutor, "default")
		require.True(t, ok)
		assert.Equal(t, "cimg/base:stable", exec.(*domain.ReusableExecutor).Executor.(*domain.DockerExecutor).Image)

		_, ok = loaded.Lookup(domain.KindJob, "test")
		assert.True(t, ok)
		_, ok = loaded.Lookup(domain.KindCommand, "install")
		assert.True(t, ok)
	})

	t.Run("Fetch Non-Existent", func(t *testing.T) {
		_, err := catalog.Fetch(ctx, "non-existent")
		assert.ErrorIs(t, err, domain.ErrOrbNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := catalog.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "contract")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, catalog.Delete(ctx, "contract"))
		_, err := catalog.Fetch(ctx, "contract")
		assert.ErrorIs(t, err, domain.ErrOrbNotFound, "Fetch after Delete should return ErrOrbNotFound")
	})
}
