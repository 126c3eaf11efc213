package localcache

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/ledgerline/sync-agent/pkg/database"
	"go.uber.org/zap"
)

// Snapshot keys. These match the dashboard's persisted-state names so an
// exported browser snapshot can be imported unchanged.
const (
	KeyIncomeData          = "incomeData"
	KeyPurchaseCategories  = "purchaseCategories"
	KeyExpenseCategories   = "expenseCategories"
	KeyPayrollEmployees    = "payrollEmployees"
	KeyAttendanceEmployees = "attendanceEmployees"
	KeySidebarCollapsed    = "sidebarCollapsed"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Cache persists named JSON snapshots between agent runs. Each key holds one
// JSON-serialized document with no schema version; the income snapshot's
// legacy-array migration is handled by its manager on load.
type Cache struct {
	db     *database.DB
	logger *zap.Logger
}

// New creates a snapshot cache and applies pending schema migrations
func New(db *database.DB, logger *zap.Logger) (*Cache, error) {
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrationFS, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot cache: %w", err)
	}

	return &Cache{
		db:     db,
		logger: logger,
	}, nil
}

// Get returns the snapshot stored under key. A missing key is not an error;
// it returns found=false.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM snapshots WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("Failed to read snapshot", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores a snapshot under key, overwriting any previous value
func (c *Cache) Put(key string, value []byte) error {
	query := `
		INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := c.db.Exec(query, key, string(value)); err != nil {
		c.logger.Error("Failed to write snapshot", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot stored under key
func (c *Cache) Delete(key string) error {
	if _, err := c.db.Exec("DELETE FROM snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}
