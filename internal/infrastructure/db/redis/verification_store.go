package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loanflow/origination/internal/core/domain"
)

// VerificationStore keeps pending email verifications in Redis.
// Key format: verification:<email>
// Each key expires together with the record it holds.
type VerificationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewVerificationStore creates a VerificationStore wrapping the given Redis client.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client, now: time.Now}
}

func (s *VerificationStore) Save(ctx context.Context, v *domain.EmailVerification) error {
	ttl := v.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, v.Email)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	if err := s.client.Set(ctx, s.key(v.Email), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (s *VerificationStore) Find(ctx context.Context, email string) (*domain.EmailVerification, error) {
	raw, err := s.client.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	var v domain.EmailVerification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	if v.Expired(s.now()) {
		return nil, domain.ErrVerificationNotFound
	}
	return &v, nil
}

func (s *VerificationStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (s *VerificationStore) key(email string) string {
	return "verification:" + email
}
