package domain_test

import (
	"testing"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.Reference
		wantErr bool
	}{
		{raw: "docker-default", want: domain.Local("docker-default")},
		{raw: "node/default", want: domain.Namespaced("node", "default")},
		{raw: "", wantErr: true},
		{raw: "/default", wantErr: true},
		{raw: "node/", wantErr: true},
		{raw: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseReference(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
		})
	}
}

func TestReference_IsNamespaced(t *testing.T) {
	assert.False(t, domain.Local("build").IsNamespaced())
	assert.True(t, domain.Namespaced("node", "build").IsNamespaced())
}

func TestOrb_Lookup(t *testing.T) {
	orb := &domain.Orb{Namespace: "node"}
	_, ok := orb.Lookup(domain.KindExecutor, "default")
	assert.False(t, ok, "unmaterialized orb exposes nothing")
	assert.False(t, orb.Materialized())

	exec := domain.AsReusable("default", &domain.DockerExecutor{Image: "cimg/node:20.0"})
	orb.Executors = append(orb.Executors, exec)

	got, ok := orb.Lookup(domain.KindExecutor, "default")
	require.True(t, ok)
	assert.Same(t, exec, got)
	assert.True(t, orb.Materialized())

	_, ok = orb.Lookup(domain.KindJob, "default")
	assert.False(t, ok)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, domain.IsValidationError(&domain.MissingRequiredFieldError{Field: "name"}))
	assert.True(t, domain.IsValidationError(&domain.ParseError{Kind: domain.KindJob, Err: assert.AnError}))
	assert.True(t, domain.IsValidationError(domain.ErrReferenceNotFound))
	assert.False(t, domain.IsValidationError(domain.ErrStackUnderflow))
}
