package helpers

import (
	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// TestRepositories holds all real repository instances for integration tests
type TestRepositories struct {
	DB         *gorm.DB
	RunRepo    *persistence.GormRunRepository
	JobLogRepo *persistence.GormJobLogRepository
}

// NewTestRepositories creates all real repository instances using shared test DB
// clock is used for time-sensitive operations (usually a MockClock in tests)
func NewTestRepositories(clock shared.Clock) *TestRepositories {
	db := SharedTestDB
	return &TestRepositories{
		DB:         db,
		RunRepo:    persistence.NewGormRunRepository(db, clock),
		JobLogRepo: persistence.NewGormJobLogRepository(db, clock),
	}
}
