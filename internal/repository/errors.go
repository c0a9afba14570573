package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDBNotReady = errors.New("database not initialized")
	// ErrClosed means the parent row (request or quote) no longer accepts the change.
	ErrClosed = errors.New("parent row is closed")
	// ErrStale means a conditional update matched no row.
	ErrStale = errors.New("row changed concurrently")
)

// forUpdate locks the selected rows until the transaction ends. SQLite ignores it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
