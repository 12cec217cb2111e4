package redis

import (
	"context"
	"time"
)

// NoopCache backs deployments without Redis configured. Codes are still
// returned to the caller; the issuance cap is simply not enforced.
type NoopCache struct{}

func (NoopCache) SetOTP(context.Context, string, string, time.Duration) error {
	return nil
}

func (NoopCache) IncrementIssuance(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}
