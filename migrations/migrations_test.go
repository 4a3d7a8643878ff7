package migrations

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	src, err := iofs.New(migrationFiles, "files")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	latest, err := latestVersion(src)
	require.NoError(t, err)
	assert.Equal(t, uint(4), latest)

	for v := first; v <= latest; v++ {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "version %d has no up migration", v)
		up.Close()

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d has no down migration", v)
		down.Close()
	}
}
