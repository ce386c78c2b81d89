package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn inside one database transaction. Ingest uses
// this to swap whole rundown trees in or out: either every row of the
// tree lands, or none do. Commits on nil, rolls back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
		return nil
	})
}
