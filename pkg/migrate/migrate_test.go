package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/migrations"
)

func TestVersions_EmbeddedMigrationsAreSequential(t *testing.T) {
	versions, err := Versions(migrations.FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	for i, v := range versions {
		assert.Equal(t, int64(i+1), v)
	}
}

func TestNewRunner_RequiresDB(t *testing.T) {
	_, err := NewRunner(nil, migrations.FS, ".")
	assert.Error(t, err)
}
