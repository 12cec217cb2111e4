package redis

import (
	"context"
	"fmt"
	"time"

	"markwave-backend/internal/client"
	"markwave-backend/internal/util"
)

const (
	otpPrefix        = "otp:"
	otpAttemptPrefix = "otp_attempts:"
)

// OTPCache stores hashed one-time codes keyed by mobile number. Plaintext
// codes never touch Redis. Delivery and confirmation happen out of band, so
// the cache only carries the issuance side: the hash for audit within its
// TTL and the counter that caps reissues.
type OTPCache struct {
	client *client.RedisClient
}

func NewOTPCache(client *client.RedisClient) *OTPCache {
	return &OTPCache{client: client}
}

// SetOTP caches the hash of a freshly issued code for the given TTL,
// replacing any previous code for the same mobile.
func (c *OTPCache) SetOTP(ctx context.Context, mobile, otpHash string, ttl time.Duration) error {
	key := otpPrefix + mobile
	if err := c.client.Set(ctx, key, otpHash, ttl); err != nil {
		util.Error("Failed to set OTP in cache", util.String("mobile", mobile), util.ErrorField(err))
		return fmt.Errorf("failed to set OTP in cache: %w", err)
	}
	util.Debug("OTP cached", util.String("mobile", mobile), util.Duration("ttl", ttl))
	return nil
}

// IncrementIssuance bumps the per-mobile issuance counter and returns the
// new count. The counter expires on the same window as the codes, so a
// quiet number resets naturally.
func (c *OTPCache) IncrementIssuance(ctx context.Context, mobile string, window time.Duration) (int64, error) {
	key := otpAttemptPrefix + mobile
	count, err := c.client.IncrWithExpire(ctx, key, window)
	if err != nil {
		util.Error("Failed to increment OTP issuance count", util.String("mobile", mobile), util.ErrorField(err))
		return 0, fmt.Errorf("failed to increment OTP issuance count: %w", err)
	}
	return count, nil
}
