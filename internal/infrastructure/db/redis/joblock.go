package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockTTL outlives the day so a late replica cannot take the lock again.
const lockTTL = 26 * time.Hour

// JobLock lets one replica claim a scheduled job per calendar day.
// Key format: job:<name>:<yyyy-mm-dd>
type JobLock struct {
	client *redis.Client
	owner  string
}

// NewJobLock creates a JobLock. owner is stored as the key value for
// debugging which replica ran the job.
func NewJobLock(client *redis.Client, owner string) *JobLock {
	return &JobLock{client: client, owner: owner}
}

// Acquire reports whether this caller won the job for day.
func (l *JobLock) Acquire(ctx context.Context, job string, day time.Time) (bool, error) {
	ok, err := l.client.SetNX(ctx, LockKey(job, day), l.owner, lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("job lock: %w", err)
	}
	return ok, nil
}

// LockKey formats the per-day lock key for job.
func LockKey(job string, day time.Time) string {
	return fmt.Sprintf("job:%s:%s", job, day.Format("2006-01-02"))
}
