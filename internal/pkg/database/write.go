package database

import (
	"context"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

// Write stores a batch of events in one transaction.
func (db *Database) Write(ctx context.Context, events model.BinEvents) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, event := range events {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bin_event (time_stamp, kind, bin_index, status, detail)
			VALUES ($1, $2, $3, $4, $5)
		`, event.Timestamp, string(event.Kind), binIndexParam(event.BinIndex), event.Status, event.Detail); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func binIndexParam(index *model.BinIndex) *int16 {
	if index == nil {
		return nil
	}
	v := int16(*index)
	return &v
}
