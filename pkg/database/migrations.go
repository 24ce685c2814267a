package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These enable efficient free-text search over title text and event-family
// summaries without a dedicated search service.
func CreateGINIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_titles_display_text_gin
		ON titles USING gin(to_tsvector('english', display_text))`)
	if err != nil {
		return fmt.Errorf("failed to create titles display_text GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_event_families_summary_gin
		ON event_families USING gin(to_tsvector('english', COALESCE(summary, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create event_families summary GIN index: %w", err)
	}

	return nil
}
