package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

// GetProfile returns ErrNotFound when the user has none.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}
	var current, goal sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT target_calories, current_weight_kg, goal_weight_kg, persona
		FROM user_profiles WHERE user_id = ?`), userID).
		Scan(&p.TargetCalories, &current, &goal, &p.Persona)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}
	if current.Valid {
		p.CurrentWeightKg = &current.Float64
	}
	if goal.Valid {
		p.GoalWeightKg = &goal.Float64
	}
	return p, nil
}

// UpsertProfile creates or replaces the user's profile.
func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if p.TargetCalories <= 0 {
		p.TargetCalories = models.DefaultTargetCalories
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM user_profiles WHERE user_id = ?`), p.UserID).Scan(&exists)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO user_profiles (user_id, target_calories, current_weight_kg, goal_weight_kg, persona)
				VALUES (?, ?, ?, ?, ?)`),
				p.UserID, p.TargetCalories, nullFloat(p.CurrentWeightKg), nullFloat(p.GoalWeightKg), p.Persona)
			return errors.Wrap(err, "failed to insert profile")
		case err != nil:
			return errors.Wrap(err, "failed to look up profile")
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE user_profiles SET target_calories = ?, current_weight_kg = ?, goal_weight_kg = ?, persona = ?
			WHERE user_id = ?`),
			p.TargetCalories, nullFloat(p.CurrentWeightKg), nullFloat(p.GoalWeightKg), p.Persona, p.UserID)
		return errors.Wrap(err, "failed to update profile")
	})
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
