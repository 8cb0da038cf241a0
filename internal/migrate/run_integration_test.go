package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/taskdesk/internal/migrate"
	"github.com/target/taskdesk/internal/testutil"
)

func TestMigrator_Idempotent(t *testing.T) {
	db := testutil.EphemeralDB(t)
	ctx := context.Background()
	m := migrate.New(db, nil)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied, "test setup already applied every migration")

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, mig := range status {
		assert.True(t, mig.Applied, mig.Version)
	}
}
