package graphdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"markwave-backend/internal/graph"
	"markwave-backend/internal/model"
)

var errMissingMobile = errors.New("mobile number is required")

// UserRepository persists user nodes through the graph client. Atomicity of
// create-or-fetch rests on the store's single-statement MERGE guarantee; no
// existence pre-check is ever issued.
type UserRepository struct {
	client graph.Client
}

// NewUserRepository instantiates a UserRepository backed by the supplied client.
func NewUserRepository(client graph.Client) *UserRepository {
	return &UserRepository{client: client}
}

// CreateUser merges a user node on its mobile number. The user_id and all
// registration fields are applied only when the node is created, so a
// re-registration returns the existing record unchanged. The returned flag
// reports whether a new node was created.
func (r *UserRepository) CreateUser(ctx context.Context, user model.User) (*model.User, bool, error) {
	if user.Mobile == "" {
		return nil, false, errMissingMobile
	}

	params := map[string]any{
		"mobile":           user.Mobile,
		"userId":           user.UserID,
		"name":             user.Name,
		"referralType":     user.ReferralType,
		"referredByMobile": user.ReferredByMobile,
		"referredByName":   user.ReferredByName,
		"verified":         user.Verified,
	}

	res, err := r.client.ExecuteWrite(ctx, createUserCypher, params)
	if err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", user.Mobile, err)
	}
	if len(res.Records) == 0 {
		return nil, false, fmt.Errorf("create user %s: no record returned", user.Mobile)
	}

	props, ok := toPropsMap(res.Records[0]["user"])
	if !ok {
		return nil, false, fmt.Errorf("create user %s: unexpected record shape", user.Mobile)
	}
	created := toBool(res.Records[0]["created"])

	stored := userFromProps(props)
	return &stored, created, nil
}

// GetByMobile fetches a user's full property map. Returns (nil, nil) when no
// node matches.
func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*model.User, error) {
	return r.getOne(ctx, getUserByMobileCypher, map[string]any{"mobile": mobile})
}

// GetByID fetches a user by its generated identifier.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, getUserByIDCypher, map[string]any{"userId": userID})
}

func (r *UserRepository) getOne(ctx context.Context, cypher string, params map[string]any) (*model.User, error) {
	res, err := r.client.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	props, ok := toPropsMap(res.Records[0]["user"])
	if !ok {
		return nil, fmt.Errorf("fetch user: unexpected record shape")
	}
	user := userFromProps(props)
	return &user, nil
}

// ListByVerification returns users filtered on their verification flag,
// ordered by mobile number.
func (r *UserRepository) ListByVerification(ctx context.Context, verified bool) ([]model.User, error) {
	res, err := r.client.ExecuteRead(ctx, listUsersCypher, map[string]any{"verified": verified})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]model.User, 0, len(res.Records))
	for _, record := range res.Records {
		props, ok := toPropsMap(record["user"])
		if !ok {
			continue
		}
		users = append(users, userFromProps(props))
	}
	return users, nil
}

// UpdateByMobile applies a built update set to the user with the given
// mobile number. Returns (nil, nil) when no node matched.
func (r *UserRepository) UpdateByMobile(ctx context.Context, mobile string, set *UpdateSet) (*model.User, error) {
	return r.update(ctx, updateUserByMobileTemplate, "mobile", mobile, set)
}

// UpdateByID applies a built update set to the user with the given generated
// identifier.
func (r *UserRepository) UpdateByID(ctx context.Context, userID string, set *UpdateSet) (*model.User, error) {
	return r.update(ctx, updateUserByIDTemplate, "lookupId", userID, set)
}

func (r *UserRepository) update(ctx context.Context, template, keyParam, keyValue string, set *UpdateSet) (*model.User, error) {
	if set.Empty() {
		return nil, errors.New("empty update set")
	}
	// The builder rejects reserved names, but never let a colliding set
	// silently rebind the lookup value.
	if _, clash := set.Params[keyParam]; clash {
		return nil, fmt.Errorf("update set binds reserved parameter %q", keyParam)
	}

	params := make(map[string]any, len(set.Params)+1)
	for k, v := range set.Params {
		params[k] = v
	}
	params[keyParam] = keyValue

	query := fmt.Sprintf(template, strings.Join(set.Clauses, ",\n    "))
	res, err := r.client.ExecuteWrite(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	props, ok := toPropsMap(res.Records[0]["user"])
	if !ok {
		return nil, fmt.Errorf("update user: unexpected record shape")
	}
	user := userFromProps(props)
	return &user, nil
}

// VerificationState reads the fields the verify transition branches on.
type VerificationState struct {
	Found        bool
	ReferralType string
	Verified     bool
}

// GetVerificationState returns the referral type and verification flag for a
// mobile number.
func (r *UserRepository) GetVerificationState(ctx context.Context, mobile string) (VerificationState, error) {
	res, err := r.client.ExecuteRead(ctx, verificationStateCypher, map[string]any{"mobile": mobile})
	if err != nil {
		return VerificationState{}, fmt.Errorf("verification state %s: %w", mobile, err)
	}
	if len(res.Records) == 0 {
		return VerificationState{}, nil
	}
	record := res.Records[0]
	return VerificationState{
		Found:        true,
		ReferralType: toString(record["type"]),
		Verified:     toBool(record["verified"]),
	}, nil
}

// StoreVerification records the confirming device and flips the verified
// flag in a single write.
func (r *UserRepository) StoreVerification(ctx context.Context, mobile, deviceID, deviceModel string) (*model.User, error) {
	res, err := r.client.ExecuteWrite(ctx, storeVerificationCypher, map[string]any{
		"mobile":      mobile,
		"deviceId":    deviceID,
		"deviceModel": deviceModel,
	})
	if err != nil {
		return nil, fmt.Errorf("store verification %s: %w", mobile, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	props, ok := toPropsMap(res.Records[0]["user"])
	if !ok {
		return nil, fmt.Errorf("store verification: unexpected record shape")
	}
	user := userFromProps(props)
	return &user, nil
}

const createUserCypher = `
MERGE (u:User {mobile: $mobile})
ON CREATE SET u.user_id = $userId,
    u.name = $name,
    u.referral_type = $referralType,
    u.referred_by_mobile = $referredByMobile,
    u.referred_by_name = $referredByName,
    u.verified = $verified,
    u.form_filled = false,
    u.created_at = datetime()
RETURN properties(u) AS user, u.user_id = $userId AS created
`

const getUserByMobileCypher = `
MATCH (u:User {mobile: $mobile})
RETURN properties(u) AS user
`

const getUserByIDCypher = `
MATCH (u:User {user_id: $userId})
RETURN properties(u) AS user
`

const listUsersCypher = `
MATCH (u:User)
WHERE coalesce(u.verified, false) = $verified
RETURN properties(u) AS user
ORDER BY u.mobile
`

const updateUserByMobileTemplate = `
MATCH (u:User {mobile: $mobile})
SET %s
RETURN properties(u) AS user
`

const updateUserByIDTemplate = `
MATCH (u:User {user_id: $lookupId})
SET %s
RETURN properties(u) AS user
`

const verificationStateCypher = `
MATCH (u:User {mobile: $mobile})
RETURN u.referral_type AS type, coalesce(u.verified, false) AS verified
`

const storeVerificationCypher = `
MATCH (u:User {mobile: $mobile})
SET u.device_id = $deviceId,
    u.device_model = $deviceModel,
    u.verified = true
RETURN properties(u) AS user
`
