package ledger_test

import (
	"testing"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ledger"
	"github.com/stretchr/testify/assert"
)

func TestLedger_RecordIsIdempotent(t *testing.T) {
	l := ledger.New()

	assert.True(t, l.Record("node/default", domain.KindExecutor))
	assert.False(t, l.Record("node/default", domain.KindExecutor))
	assert.True(t, l.Record("node/default", domain.KindJob), "type is part of the key")
	assert.True(t, l.Record("docker-default", domain.KindExecutor))

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []domain.Subscription{
		{Name: "node/default", Type: domain.KindExecutor},
		{Name: "node/default", Type: domain.KindJob},
		{Name: "docker-default", Type: domain.KindExecutor},
	}, l.Drain())
}

func TestLedger_DrainIsSnapshot(t *testing.T) {
	l := ledger.New()
	l.Record("a", domain.KindExecutor)

	first := l.Drain()
	first[0].Name = "mutated"
	l.Record("b", domain.KindCommand)

	second := l.Drain()
	assert.Len(t, second, 2)
	assert.Equal(t, "a", second[0].Name, "drain must not expose internal storage")
	assert.Len(t, first, 1)
}

func TestLedger_Pending(t *testing.T) {
	l := ledger.New()
	l.Record("node/default", domain.KindExecutor)
	l.Record("local", domain.KindExecutor)

	pending := l.Pending(func(s domain.Subscription) bool { return s.Name == "local" })
	assert.Equal(t, []domain.Subscription{{Name: "node/default", Type: domain.KindExecutor}}, pending)
	assert.Equal(t, 2, l.Len(), "pending does not consume")
}
