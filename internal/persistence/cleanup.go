package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearDatabase drops every cached message and reclaims the freed pages.
func ClearDatabase(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	//goland:noinspection SqlWithoutWhere
	if _, err := db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	if _, err := db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum database: %w", err)
	}

	return nil
}
