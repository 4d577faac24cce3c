package store

import (
	"context"

	"cleanly/internal/models"
)

type CleanerStore struct {
	db DB
}

func NewCleanerStore(db DB) *CleanerStore {
	return &CleanerStore{db: db}
}

func (s *CleanerStore) CreateProfile(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cleaner_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (s *CleanerStore) GetProfile(ctx context.Context, userID string) (models.CleanerProfile, error) {
	var row models.CleanerProfile
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, completed_jobs_count, free_jobs_used, updated_at
		FROM cleaner_profiles
		WHERE user_id = $1
	`, userID)
	return row, err
}

// IncrementJobCounters bumps completed_jobs_count by one and free_jobs_used by
// one while the free-job allowance lasts, as a single statement so concurrent
// confirmations cannot lose updates. It returns the completed-job count after
// the increment.
func (s *CleanerStore) IncrementJobCounters(ctx context.Context, tx Getter, userID string, freeJobThreshold int) (int, error) {
	var completedAfter int
	err := tx.GetContext(ctx, &completedAfter, `
		INSERT INTO cleaner_profiles (user_id, completed_jobs_count, free_jobs_used)
		VALUES ($1, 1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET completed_jobs_count = cleaner_profiles.completed_jobs_count + 1,
		    free_jobs_used = cleaner_profiles.free_jobs_used +
		        (CASE WHEN cleaner_profiles.free_jobs_used < $2 THEN 1 ELSE 0 END),
		    updated_at = now()
		RETURNING completed_jobs_count
	`, userID, freeJobThreshold)
	return completedAfter, err
}
