package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"markwave-backend/internal/config"
	"markwave-backend/internal/events"
	"markwave-backend/internal/hashing"
	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/util"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotReferral     = errors.New("user is not a referral registration")
	ErrProductNotFound = errors.New("product not found")
	ErrTooManyRequests = errors.New("too many verification attempts")
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// OTPCache is the issuance-side cache surface the verification flow needs.
// Backed by Redis when configured, a no-op otherwise.
type OTPCache interface {
	SetOTP(ctx context.Context, mobile, otpHash string, ttl time.Duration) error
	IncrementIssuance(ctx context.Context, mobile string, window time.Duration) (int64, error)
}

// UserService handles registration, profile and verification logic.
type UserService struct {
	userRepo  *graphdb.UserRepository
	otpCache  OTPCache
	hasher    *hashing.Hasher
	publisher events.Publisher
	otpCfg    config.OTPConfig
}

// RegisterRequest is the inbound shape for user creation.
type RegisterRequest struct {
	Mobile           string `json:"mobile"`
	Name             string `json:"name"`
	ReferralType     string `json:"referral_type"`
	ReferredByMobile string `json:"referred_by_mobile"`
	ReferredByName   string `json:"referred_by_name"`
}

// VerifyRequest carries the device metadata captured at verification time.
type VerifyRequest struct {
	Mobile      string `json:"mobile"`
	DeviceID    string `json:"device_id"`
	DeviceModel string `json:"device_model"`
}

// VerifyResult distinguishes a fresh verification (OTP set) from a repeat
// call on an already verified user (OTP empty).
type VerifyResult struct {
	User            *model.User
	OTP             string
	AlreadyVerified bool
}

func NewUserService(
	userRepo *graphdb.UserRepository,
	otpCache OTPCache,
	hasher *hashing.Hasher,
	publisher events.Publisher,
	otpCfg config.OTPConfig,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		otpCache:  otpCache,
		hasher:    hasher,
		publisher: publisher,
		otpCfg:    otpCfg,
	}
}

// Register creates a user keyed by mobile number. Registering the same
// mobile twice returns the original record with the original user id. The
// bool reports whether this call created the node.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, bool, error) {
	mobile := util.SanitizeInput(req.Mobile)
	name := util.SanitizeInput(req.Name)

	if !mobilePattern.MatchString(mobile) {
		return nil, false, fmt.Errorf("%w: mobile must be 10 to 15 digits", ErrInvalidInput)
	}
	if name == "" {
		return nil, false, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	referralType := strings.TrimSpace(req.ReferralType)
	switch referralType {
	case "":
		referralType = model.ReferralTypeCustomer
	case model.ReferralTypeNew, model.ReferralTypeCustomer:
	default:
		return nil, false, fmt.Errorf("%w: unknown referral_type %q", ErrInvalidInput, referralType)
	}

	user := model.User{
		Mobile:           mobile,
		UserID:           uuid.NewString(),
		Name:             name,
		ReferralType:     referralType,
		ReferredByMobile: util.SanitizeInput(req.ReferredByMobile),
		ReferredByName:   util.SanitizeInput(req.ReferredByName),
	}

	created, wasCreated, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, false, err
	}

	if wasCreated {
		util.Info("user registered",
			util.String("mobile", mobile),
			util.String("referral_type", referralType))
		s.publisher.Publish(ctx, events.EventUserRegistered, map[string]any{
			"mobile":        created.Mobile,
			"user_id":       created.UserID,
			"referral_type": created.ReferralType,
		})
	}

	return created, wasCreated, nil
}

// GetByMobile fetches a full profile or ErrUserNotFound.
func (s *UserService) GetByMobile(ctx context.Context, mobile string) (*model.User, error) {
	user, err := s.userRepo.GetByMobile(ctx, util.SanitizeInput(mobile))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetByID fetches a full profile by generated id or ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, util.SanitizeInput(userID))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListReferrals returns users still awaiting verification.
func (s *UserService) ListReferrals(ctx context.Context) ([]model.User, error) {
	return s.userRepo.ListByVerification(ctx, false)
}

// ListCustomers returns verified users.
func (s *UserService) ListCustomers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.ListByVerification(ctx, true)
}

// UpdateByMobile applies a partial update. Returns the refreshed profile
// and the number of caller-supplied fields written. An empty update is not
// an error: no write happens and the count is zero.
func (s *UserService) UpdateByMobile(ctx context.Context, mobile string, req *graphdb.UserUpdate) (*model.User, int, error) {
	return s.update(ctx, util.SanitizeInput(mobile), req, s.userRepo.UpdateByMobile, s.userRepo.GetByMobile)
}

// UpdateByID is UpdateByMobile keyed by the generated user id.
func (s *UserService) UpdateByID(ctx context.Context, userID string, req *graphdb.UserUpdate) (*model.User, int, error) {
	return s.update(ctx, util.SanitizeInput(userID), req, s.userRepo.UpdateByID, s.userRepo.GetByID)
}

type updateFn func(ctx context.Context, key string, set *graphdb.UpdateSet) (*model.User, error)
type fetchFn func(ctx context.Context, key string) (*model.User, error)

func (s *UserService) update(ctx context.Context, key string, req *graphdb.UserUpdate, write updateFn, fetch fetchFn) (*model.User, int, error) {
	set, err := graphdb.BuildUserUpdate(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	if set.Empty() {
		user, err := fetch(ctx, key)
		if err != nil {
			return nil, 0, err
		}
		if user == nil {
			return nil, 0, ErrUserNotFound
		}
		return user, 0, nil
	}

	user, err := write(ctx, key, set)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, ErrUserNotFound
	}

	util.Info("user updated", util.String("key", key), util.Int("fields", len(set.Clauses)))
	return user, len(set.Clauses), nil
}

// Verify runs the three-state verification transition. Already verified
// users get their profile back with no new code. Unverified referral users
// get a fresh 6-digit code, their device metadata stored, and the verified
// flag flipped in the same write. Anyone else is rejected.
func (s *UserService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	mobile := util.SanitizeInput(req.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return nil, fmt.Errorf("%w: mobile must be 10 to 15 digits", ErrInvalidInput)
	}

	state, err := s.userRepo.GetVerificationState(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if !state.Found {
		return nil, ErrUserNotFound
	}

	if state.Verified {
		user, err := s.userRepo.GetByMobile(ctx, mobile)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return &VerifyResult{User: user, AlreadyVerified: true}, nil
	}

	if state.ReferralType != model.ReferralTypeNew {
		return nil, ErrNotReferral
	}

	count, err := s.otpCache.IncrementIssuance(ctx, mobile, s.otpCfg.TTL)
	if err != nil {
		return nil, err
	}
	if count > int64(s.otpCfg.MaxIssuance) {
		util.Warn("OTP issuance limit hit", util.String("mobile", mobile))
		return nil, ErrTooManyRequests
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}

	otpHash, err := s.hasher.HashOTP(otp)
	if err != nil {
		return nil, err
	}
	if err := s.otpCache.SetOTP(ctx, mobile, otpHash, s.otpCfg.TTL); err != nil {
		return nil, err
	}

	user, err := s.userRepo.StoreVerification(ctx, mobile, util.SanitizeInput(req.DeviceID), util.SanitizeInput(req.DeviceModel))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	util.Info("user verified", util.String("mobile", mobile))
	s.publisher.Publish(ctx, events.EventUserVerified, map[string]any{
		"mobile":  user.Mobile,
		"user_id": user.UserID,
	})

	return &VerifyResult{User: user, OTP: otp}, nil
}

// generateOTP draws a uniform 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
