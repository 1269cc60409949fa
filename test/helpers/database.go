package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/infrastructure/database"
)

// NewTestDB returns a private, migrated in-memory history database that is
// closed when the test ends. Use SharedTestDB for suites that reset tables
// between scenarios instead.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}
