package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
)

// TestContext creates a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// GenerateUUID generates a new UUID for testing
func GenerateUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id
}

// Window builds a validated time window, failing the test on bad bounds.
func Window(t *testing.T, start, end time.Time) values.TimeWindow {
	t.Helper()
	w, err := values.NewTimeWindow(start, end)
	require.NoError(t, err)
	return w
}
