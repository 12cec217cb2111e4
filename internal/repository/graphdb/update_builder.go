package graphdb

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"markwave-backend/internal/util"
)

var (
	// ErrInvalidDateOfBirth indicates a date_of_birth that does not parse in
	// the accepted DD-MM-YYYY layout. Rejected rather than silently dropped.
	ErrInvalidDateOfBirth = errors.New("date_of_birth must be in DD-MM-YYYY format")
	// ErrReservedKey indicates a custom key that collides with a recognized
	// user property or an internal parameter name.
	ErrReservedKey = errors.New("custom key collides with a recognized property")
	// ErrDuplicateKey indicates two custom keys that normalize to the same
	// property name.
	ErrDuplicateKey = errors.New("custom keys collide after normalization")
)

// Parameter names the repositories bind internally. Custom keys must not
// shadow them or the lookup value would overwrite the caller's.
var reservedParams = map[string]struct{}{
	"lookupId": {},
}

// UserUpdate is a partial-update request. Nil fields are untouched; present
// fields (including explicit false/0/empty string) are applied. Custom
// carries caller-defined properties whose keys are validated before they
// reach any statement text.
type UserUpdate struct {
	Name             *string        `json:"name,omitempty"`
	FirstName        *string        `json:"first_name,omitempty"`
	LastName         *string        `json:"last_name,omitempty"`
	Email            *string        `json:"email,omitempty"`
	ReferredByMobile *string        `json:"referred_by_mobile,omitempty"`
	ReferredByName   *string        `json:"referred_by_name,omitempty"`
	Verified         *bool          `json:"verified,omitempty"`
	FormFilled       *bool          `json:"form_filled,omitempty"`
	DeviceID         *string        `json:"device_id,omitempty"`
	DeviceModel      *string        `json:"device_model,omitempty"`
	Address          *string        `json:"address,omitempty"`
	City             *string        `json:"city,omitempty"`
	State            *string        `json:"state,omitempty"`
	Pincode          *string        `json:"pincode,omitempty"`
	Occupation       *string        `json:"occupation,omitempty"`
	IncomeLevel      *string        `json:"income_level,omitempty"`
	FamilySize       *int           `json:"family_size,omitempty"`
	Aadhaar          *string        `json:"aadhaar,omitempty"`
	PAN              *string        `json:"pan,omitempty"`
	DateOfBirth      *string        `json:"date_of_birth,omitempty"`
	Custom           map[string]any `json:"custom,omitempty"`
}

// UpdateSet is the output of the builder: an ordered list of SET assignment
// expressions and the parameter map binding them. The builder is a pure
// transformation; it never touches storage.
type UpdateSet struct {
	Clauses []string
	Params  map[string]any
}

// Empty reports whether the update would write nothing.
func (s *UpdateSet) Empty() bool {
	return len(s.Clauses) == 0
}

// fieldSetters is the fixed, reviewed mapping of recognized properties to
// their extractors. Order here is the order assignments appear in the
// statement.
var fieldSetters = []struct {
	property string
	value    func(u *UserUpdate) (any, bool)
}{
	{"name", func(u *UserUpdate) (any, bool) { return strPtr(u.Name) }},
	{"first_name", func(u *UserUpdate) (any, bool) { return strPtr(u.FirstName) }},
	{"last_name", func(u *UserUpdate) (any, bool) { return strPtr(u.LastName) }},
	{"email", func(u *UserUpdate) (any, bool) { return strPtr(u.Email) }},
	{"referred_by_mobile", func(u *UserUpdate) (any, bool) { return strPtr(u.ReferredByMobile) }},
	{"referred_by_name", func(u *UserUpdate) (any, bool) { return strPtr(u.ReferredByName) }},
	{"verified", func(u *UserUpdate) (any, bool) { return boolPtr(u.Verified) }},
	{"form_filled", func(u *UserUpdate) (any, bool) { return boolPtr(u.FormFilled) }},
	{"device_id", func(u *UserUpdate) (any, bool) { return strPtr(u.DeviceID) }},
	{"device_model", func(u *UserUpdate) (any, bool) { return strPtr(u.DeviceModel) }},
	{"address", func(u *UserUpdate) (any, bool) { return strPtr(u.Address) }},
	{"city", func(u *UserUpdate) (any, bool) { return strPtr(u.City) }},
	{"state", func(u *UserUpdate) (any, bool) { return strPtr(u.State) }},
	{"pincode", func(u *UserUpdate) (any, bool) { return strPtr(u.Pincode) }},
	{"occupation", func(u *UserUpdate) (any, bool) { return strPtr(u.Occupation) }},
	{"income_level", func(u *UserUpdate) (any, bool) { return strPtr(u.IncomeLevel) }},
	{"family_size", func(u *UserUpdate) (any, bool) { return intPtr(u.FamilySize) }},
	{"aadhaar", func(u *UserUpdate) (any, bool) { return strPtr(u.Aadhaar) }},
	{"pan", func(u *UserUpdate) (any, bool) { return strPtr(u.PAN) }},
}

// BuildUserUpdate assembles SET assignments and bound parameters for a
// partial update. Supplying email forces verified and form_filled true in
// the same write. Custom keys are sanitized (spaces/hyphens to underscores)
// and must pass the property-name allow-list; any violation rejects the
// whole update.
func BuildUserUpdate(req *UserUpdate) (*UpdateSet, error) {
	set := &UpdateSet{Params: make(map[string]any)}

	for _, setter := range fieldSetters {
		value, present := setter.value(req)
		if !present {
			continue
		}
		set.append(setter.property, value)
	}

	if req.DateOfBirth != nil {
		parsed, err := time.Parse(DateLayout, *req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateOfBirth
		}
		set.append("date_of_birth", dbtype.Date(parsed))
	}

	// Supplying an email means the profile form was completed and the
	// address stands verified, whatever the flags said before.
	if req.Email != nil {
		set.force("verified", true)
		set.force("form_filled", true)
	}

	if len(req.Custom) > 0 {
		keys := make([]string, 0, len(req.Custom))
		sanitized := make(map[string]string, len(req.Custom))
		for raw := range req.Custom {
			key, err := util.SanitizePropertyKey(raw)
			if err != nil {
				return nil, fmt.Errorf("custom key %q: %w", raw, err)
			}
			if _, reserved := recognizedProps[key]; reserved {
				return nil, fmt.Errorf("custom key %q: %w", raw, ErrReservedKey)
			}
			if _, reserved := reservedParams[key]; reserved {
				return nil, fmt.Errorf("custom key %q: %w", raw, ErrReservedKey)
			}
			if _, dup := sanitized[key]; dup {
				return nil, fmt.Errorf("custom key %q: %w", raw, ErrDuplicateKey)
			}
			keys = append(keys, key)
			sanitized[key] = raw
		}
		sort.Strings(keys)
		for _, key := range keys {
			set.append(key, req.Custom[sanitized[key]])
		}
	}

	return set, nil
}

func (s *UpdateSet) append(property string, value any) {
	s.Clauses = append(s.Clauses, fmt.Sprintf("u.%s = $%s", property, property))
	s.Params[property] = value
}

// force applies an assignment, overriding any value the request itself
// carried for the same property.
func (s *UpdateSet) force(property string, value any) {
	if _, exists := s.Params[property]; !exists {
		s.Clauses = append(s.Clauses, fmt.Sprintf("u.%s = $%s", property, property))
	}
	s.Params[property] = value
}

func strPtr(p *string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func boolPtr(p *bool) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func intPtr(p *int) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}
