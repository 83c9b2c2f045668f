package scoring

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kifaa-platform/kifaa/internal/identity"
	"github.com/kifaa-platform/kifaa/internal/kyc"
	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/loan"
)

const cachePrefix = "score:v1:"

// Result is the derived standing for one user.
type Result struct {
	Score int    `json:"score"`
	Tier  string `json:"tier"`
}

// Service recomputes the score from full history and keeps the persisted
// user fields and the Redis cache in sync. Recomputation is O(history); the
// cache absorbs hot reads and is invalidated by every ledger, loan and KYC
// mutation.
type Service struct {
	users  identity.Repository
	loans  loan.Repository
	ledger ledger.Ledger
	kyc    kyc.Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds a scoring service. The Redis client is optional; without
// it every read recomputes.
func NewService(users identity.Repository, loans loan.Repository, l ledger.Ledger, kycRepo kyc.Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{users: users, loans: loans, ledger: l, kyc: kycRepo, cache: cache, ttl: ttl, logger: logger}
}

// Compute returns the user's current score and tier, serving from cache when
// possible and persisting recomputed values onto the user row.
func (s *Service) Compute(ctx context.Context, userID string) (Result, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cachePrefix+userID).Result()
		if err == nil {
			var res Result
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				return res, nil
			}
		} else if err != redis.Nil && s.logger != nil {
			s.logger.Warn("score cache lookup failed", "user_id", userID, "error", err)
		}
	}

	snapshot, err := s.snapshot(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	res := Result{Score: Score(snapshot)}
	res.Tier = TierFor(res.Score)

	if err := s.users.UpdateScore(ctx, userID, res.Score, res.Tier); err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			if err := s.cache.Set(ctx, cachePrefix+userID, payload, s.ttl).Err(); err != nil && s.logger != nil {
				s.logger.Warn("score cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return res, nil
}

// CurrentScore returns just the numeric score, for callers that gate
// behavior on it.
func (s *Service) CurrentScore(ctx context.Context, userID string) (int, error) {
	res, err := s.Compute(ctx, userID)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// Invalidate drops the cached result so the next read recomputes.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cachePrefix+userID).Err()
}

func (s *Service) snapshot(ctx context.Context, userID string) (Snapshot, error) {
	var snap Snapshot

	loans, err := s.loans.ListByUser(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	for _, l := range loans {
		switch l.Status {
		case loan.StatusCompleted:
			snap.CompletedLoans++
		case loan.StatusDefaulted:
			snap.DefaultedLoans++
		}
	}

	stats, err := s.ledger.Stats(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Deposits = stats.Deposits
	snap.CompletedRepayments = stats.Repayments

	if s.kyc != nil {
		approved, err := s.kyc.CountApproved(ctx, userID)
		if err != nil {
			return Snapshot{}, err
		}
		snap.ApprovedKYCDocs = approved
	}

	return snap, nil
}
