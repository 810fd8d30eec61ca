package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAttemptNotStarted reports a missing or expired attempt stamp.
var ErrAttemptNotStarted = fmt.Errorf("quiz attempt not started or expired")

// AttemptTimerRepository keeps quiz attempt start stamps in Redis. The key
// TTL is the quiz time limit plus grace, so an expired stamp simply
// disappears and the submission is rejected.
type AttemptTimerRepository struct {
	client *redis.Client
}

func NewAttemptTimerRepository(client *redis.Client) *AttemptTimerRepository {
	return &AttemptTimerRepository{client: client}
}

func attemptKey(quizID, studentID string) string {
	return "quiz:attempt:" + quizID + ":" + studentID
}

// Start stamps the attempt, keeping an existing stamp so re-entering the
// quiz page does not reset the clock.
func (r *AttemptTimerRepository) Start(ctx context.Context, quizID, studentID string, ttl time.Duration) (time.Time, error) {
	key := attemptKey(quizID, studentID)
	now := time.Now()

	set, err := r.client.SetNX(ctx, key, now.Unix(), ttl).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stamp attempt start: %w", err)
	}
	if set {
		return now, nil
	}
	return r.Get(ctx, quizID, studentID)
}

func (r *AttemptTimerRepository) Get(ctx context.Context, quizID, studentID string) (time.Time, error) {
	value, err := r.client.Get(ctx, attemptKey(quizID, studentID)).Result()
	if err == redis.Nil {
		return time.Time{}, ErrAttemptNotStarted
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load attempt stamp: %w", err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt attempt stamp: %w", err)
	}
	return time.Unix(unix, 0), nil
}

func (r *AttemptTimerRepository) Clear(ctx context.Context, quizID, studentID string) error {
	return r.client.Del(ctx, attemptKey(quizID, studentID)).Err()
}
