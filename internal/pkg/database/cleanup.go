package database

import (
	"context"
	"time"
)

// Cleanup removes events older than retentionDays and reports how many went.
func (db *Database) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := db.pool.Exec(ctx, "DELETE FROM bin_event WHERE time_stamp < $1", time.Now().AddDate(0, 0, -retentionDays))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
