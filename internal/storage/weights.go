package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

// LogWeight records the user's weight for date (YYYY-MM-DD), replacing an
// earlier weigh-in on the same date.
func (s *Store) LogWeight(ctx context.Context, userID, date string, kg float64) error {
	if kg <= 0 {
		return errors.Errorf("invalid weight %.1fkg", kg)
	}
	if _, err := parseDate(date); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT id FROM progress_logs WHERE user_id = ? AND log_date = ?`), userID, date).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO progress_logs (id, user_id, log_date, weight_kg, created_ts)
				VALUES (?, ?, ?, ?, ?)`), uuid.NewString(), userID, date, kg, s.nextTimestamp())
			return errors.Wrap(err, "failed to insert weight")
		case err != nil:
			return errors.Wrap(err, "failed to look up weight")
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE progress_logs SET weight_kg = ?, created_ts = ? WHERE id = ?`), kg, s.nextTimestamp(), id)
		return errors.Wrap(err, "failed to update weight")
	})
}

// RecentWeights returns weigh-ins dated within [from, to], oldest first.
func (s *Store) RecentWeights(ctx context.Context, userID, from, to string) ([]models.WeightRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT log_date, weight_kg FROM progress_logs
		WHERE user_id = ? AND log_date >= ? AND log_date <= ?
		ORDER BY log_date`), userID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query weights")
	}
	defer rows.Close()

	out := []models.WeightRecord{}
	for rows.Next() {
		var w models.WeightRecord
		if err := rows.Scan(&w.Date, &w.WeightKg); err != nil {
			return nil, errors.Wrap(err, "failed to scan weight")
		}
		out = append(out, w)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate weights")
}
