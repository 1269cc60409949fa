package helpers

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/database"
)

// SharedTestDB is one migrated history database shared by a whole suite.
// Suites open it in TestMain and clear it with TruncateAllTables between
// scenarios; unit tests prefer NewTestDB.
var SharedTestDB *gorm.DB

func InitializeSharedTestDB() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to open shared test database: %w", err)
	}
	SharedTestDB = db
	return nil
}

// TruncateAllTables deletes every row of every history model, children first
func TruncateAllTables() error {
	if SharedTestDB == nil {
		return fmt.Errorf("shared test database not initialized")
	}

	models := persistence.AllModels()
	wipe := SharedTestDB.Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(models) - 1; i >= 0; i-- {
		if err := wipe.Delete(models[i]).Error; err != nil {
			return fmt.Errorf("failed to truncate %T: %w", models[i], err)
		}
	}
	return nil
}

func CloseSharedTestDB() error {
	if SharedTestDB == nil {
		return nil
	}
	err := database.Close(SharedTestDB)
	SharedTestDB = nil
	return err
}
