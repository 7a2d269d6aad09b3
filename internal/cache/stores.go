package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"edupro/internal/model"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func getJSON(ctx context.Context, s store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, s store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

type ProfileCache struct {
	store store
	ttl   time.Duration
}

func NewProfileCache(s store, ttl time.Duration) *ProfileCache {
	return &ProfileCache{store: s, ttl: ttl}
}

func profileKey(id uuid.UUID) string { return "profile:" + id.String() }

func (c *ProfileCache) GetProfile(ctx context.Context, id uuid.UUID) (*model.UserPublic, error) {
	var p model.UserPublic
	if err := getJSON(ctx, c.store, profileKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ProfileCache) SetProfile(ctx context.Context, profile *model.UserPublic) error {
	return setJSON(ctx, c.store, profileKey(profile.Id), profile, c.ttl)
}

// AttemptStore keeps one in-progress attempt per student and assessment.
// Every save pushes the expiry out by ttl.
type AttemptStore struct {
	store store
	ttl   time.Duration
}

func NewAttemptStore(s store, ttl time.Duration) *AttemptStore {
	return &AttemptStore{store: s, ttl: ttl}
}

func attemptKey(assessmentID, studentID uuid.UUID) string {
	return "attempt:" + assessmentID.String() + ":" + studentID.String()
}

func (s *AttemptStore) GetAttempt(ctx context.Context, assessmentID, studentID uuid.UUID) (*model.Attempt, error) {
	var a model.Attempt
	if err := getJSON(ctx, s.store, attemptKey(assessmentID, studentID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt *model.Attempt) error {
	return setJSON(ctx, s.store, attemptKey(attempt.AssessmentId, attempt.StudentId), attempt, s.ttl)
}

func (s *AttemptStore) DeleteAttempt(ctx context.Context, assessmentID, studentID uuid.UUID) error {
	return s.store.Delete(ctx, attemptKey(assessmentID, studentID))
}

// Revocations records signed-out token ids until the token would have
// expired anyway.
type Revocations struct {
	store store
	now   func() time.Time
}

func NewRevocations(s store) *Revocations {
	return &Revocations{store: s, now: time.Now}
}

func revokedKey(tokenID string) string { return "revoked:" + tokenID }

func (r *Revocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, revokedKey(tokenID), []byte("1"), ttl)
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.store.Exists(ctx, revokedKey(tokenID))
}
