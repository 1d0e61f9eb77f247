package oracle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnqh/heavymath/internal/adapters/oracle"
	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/ports"
)

func TestMemory_GetAndConsume(t *testing.T) {
	m := oracle.NewMemory()
	ctx := context.Background()
	ts := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

	m.Set("feed-1", ports.OracleData{Percentage: 42, Timestamp: ts, Valid: true})

	data, err := m.GetData(ctx, "feed-1")
	require.NoError(t, err)
	assert.Equal(t, 42, data.Percentage)
	assert.True(t, data.Valid)

	require.NoError(t, m.MarkConsumed(ctx, "feed-1"))
	assert.True(t, m.Consumed("feed-1"))

	// Un dato consumido deja de ser válido hasta fijar uno nuevo.
	data, err = m.GetData(ctx, "feed-1")
	require.NoError(t, err)
	assert.False(t, data.Valid)

	m.Set("feed-1", ports.OracleData{Percentage: 43, Timestamp: ts.Add(time.Hour), Valid: true})
	data, _ = m.GetData(ctx, "feed-1")
	assert.True(t, data.Valid)
}

func TestMemory_UnknownFeed(t *testing.T) {
	m := oracle.NewMemory()
	_, err := m.GetData(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrExternalData)
	assert.ErrorIs(t, m.MarkConsumed(context.Background(), "nope"), domain.ErrExternalData)
}
