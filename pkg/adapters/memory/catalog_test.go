package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/pipeforge/pkg/adapters/memory"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Contract(t *testing.T) {
	catalog, err := memory.NewCatalog()
	require.NoError(t, err)
	ports.RunOrbCatalogContract(t, catalog)
}

func TestMemoryCatalog_Isolation(t *testing.T) {
	orb := &domain.Orb{
		Namespace: "node",
		Version:   "5.1.0",
		Executors: []*domain.ReusableExecutor{domain.AsReusable("default", &domain.DockerExecutor{Image: "cimg/node:20.0"})},
	}
	catalog, err := memory.NewCatalog(orb)
	require.NoError(t, err)

	orb.Executors[0].Name = "mutated"

	loaded, err := catalog.Fetch(context.Background(), "node")
	require.NoError(t, err)
	_, ok := loaded.Lookup(domain.KindExecutor, "default")
	assert.True(t, ok, "catalog must not alias published orbs")
}

func TestMemoryCatalog_RejectsAnonymous(t *testing.T) {
	_, err := memory.NewCatalog(&domain.Orb{})
	var missing *domain.MissingRequiredFieldError
	assert.ErrorAs(t, err, &missing)
}
