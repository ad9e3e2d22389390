package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zianad/idarati-api/internal/models"
)

const snapshotKeyPrefix = "idarati:schedule:"

// SessionSnapshotStore persists a school's whole session list as one value
// keyed by tenant id. Each Replace swaps the entire snapshot in a single SET,
// so readers never observe a partial write.
type SessionSnapshotStore struct {
	client *redis.Client
}

// NewSessionSnapshotStore constructs the store.
func NewSessionSnapshotStore(client *redis.Client) *SessionSnapshotStore {
	return &SessionSnapshotStore{client: client}
}

// Load fetches the session list for a school. A missing key yields an empty
// schedule, not an error.
func (s *SessionSnapshotStore) Load(ctx context.Context, schoolID string) ([]models.Session, error) {
	raw, err := s.client.Get(ctx, snapshotKey(schoolID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Session{}, nil
		}
		return nil, fmt.Errorf("load schedule snapshot: %w", err)
	}
	var sessions []models.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode schedule snapshot: %w", err)
	}
	return sessions, nil
}

// Replace overwrites the school's whole session list.
func (s *SessionSnapshotStore) Replace(ctx context.Context, schoolID string, sessions []models.Session) error {
	if sessions == nil {
		sessions = []models.Session{}
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode schedule snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(schoolID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store schedule snapshot: %w", err)
	}
	return nil
}

// Clear removes the school's snapshot entirely.
func (s *SessionSnapshotStore) Clear(ctx context.Context, schoolID string) error {
	if err := s.client.Del(ctx, snapshotKey(schoolID)).Err(); err != nil {
		return fmt.Errorf("clear schedule snapshot: %w", err)
	}
	return nil
}

func snapshotKey(schoolID string) string {
	return snapshotKeyPrefix + schoolID
}
