package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

// GetEvents returns the newest events first.
func (db *Database) GetEvents(ctx context.Context, limit int) (model.BinEvents, error) {
	const query = `
	SELECT id, time_stamp, kind, bin_index, status, detail
	FROM bin_event
	ORDER BY time_stamp DESC, id DESC
	LIMIT $1;
	`

	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) (model.BinEvents, error) {
	events := model.BinEvents{}
	for rows.Next() {
		var (
			event model.BinEvent
			kind  string
			index *int16
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &kind, &index, &event.Status, &event.Detail); err != nil {
			return nil, err
		}
		event.Kind = model.EventKind(kind)
		if index != nil {
			bi := model.BinIndex(*index)
			event.BinIndex = &bi
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events, nil
		}
		return nil, err
	}

	return events, nil
}
