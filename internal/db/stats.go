package db

import (
	"fmt"

	"vox/internal/models"
)

type StatsRepository struct {
	db *DB
}

func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Snapshot collects the persisted counters; the caller fills in the
// online connection count from the hub.
func (r *StatsRepository) Snapshot() (*models.Stats, error) {
	var s models.Stats
	counters := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM users WHERE deleted = 0`, &s.Users},
		{`SELECT COUNT(*) FROM private_messages`, &s.PrivateMessages},
		{`SELECT COUNT(*) FROM chat_messages`, &s.ChatMessages},
		{`SELECT COUNT(*) FROM chats`, &s.Chats},
	}
	for _, c := range counters {
		if err := r.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("collecting stats: %w", err)
		}
	}
	return &s, nil
}
