package graphdb

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"markwave-backend/internal/model"
)

// DateLayout is the textual date format accepted and returned by the API.
const DateLayout = "02-01-2006"

// Node properties that never surface through the custom-field map.
var internalProps = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
}

// Properties mapped onto fixed struct fields of model.User.
var recognizedProps = map[string]struct{}{
	"mobile":             {},
	"user_id":            {},
	"name":               {},
	"first_name":         {},
	"last_name":          {},
	"email":              {},
	"referral_type":      {},
	"referred_by_mobile": {},
	"referred_by_name":   {},
	"verified":           {},
	"form_filled":        {},
	"device_id":          {},
	"device_model":       {},
	"address":            {},
	"city":               {},
	"state":              {},
	"pincode":            {},
	"occupation":         {},
	"income_level":       {},
	"family_size":        {},
	"aadhaar":            {},
	"pan":                {},
	"date_of_birth":      {},
}

func userFromProps(props map[string]any) model.User {
	user := model.User{
		Mobile:           toString(props["mobile"]),
		UserID:           toString(props["user_id"]),
		Name:             toString(props["name"]),
		FirstName:        toString(props["first_name"]),
		LastName:         toString(props["last_name"]),
		Email:            toString(props["email"]),
		ReferralType:     toString(props["referral_type"]),
		ReferredByMobile: toString(props["referred_by_mobile"]),
		ReferredByName:   toString(props["referred_by_name"]),
		Verified:         toBool(props["verified"]),
		FormFilled:       toBool(props["form_filled"]),
		DeviceID:         toString(props["device_id"]),
		DeviceModel:      toString(props["device_model"]),
		Address:          toString(props["address"]),
		City:             toString(props["city"]),
		State:            toString(props["state"]),
		Pincode:          toString(props["pincode"]),
		Occupation:       toString(props["occupation"]),
		IncomeLevel:      toString(props["income_level"]),
		FamilySize:       toInt(props["family_size"]),
		Aadhaar:          toString(props["aadhaar"]),
		PAN:              toString(props["pan"]),
		DateOfBirth:      toDisplayDate(props["date_of_birth"]),
	}

	for key, value := range props {
		if _, ok := recognizedProps[key]; ok {
			continue
		}
		if _, ok := internalProps[key]; ok {
			continue
		}
		if user.Custom == nil {
			user.Custom = make(map[string]any)
		}
		user.Custom[key] = normalizeValue(value)
	}

	return user
}

func productFromProps(props map[string]any) model.Product {
	return model.Product{
		ID:          toString(props["id"]),
		Breed:       toString(props["breed"]),
		Age:         toInt(props["age"]),
		MilkYield:   toFloat64(props["milkYield"]),
		Price:       toFloat64(props["price"]),
		InStock:     toBool(props["inStock"]),
		Insurance:   toFloat64(props["insurance"]),
		Images:      toStringSlice(props["buffalo_images"]),
		Description: toString(props["description"]),
	}
}

// normalizeValue flattens driver-specific types so custom properties stay
// JSON-friendly on the way out.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case dbtype.Date:
		return time.Time(v).Format(DateLayout)
	case time.Time:
		return v.Format(DateLayout)
	default:
		return value
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toBool(val any) bool {
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func toInt(val any) int {
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toDisplayDate(val any) string {
	switch v := val.(type) {
	case dbtype.Date:
		return time.Time(v).Format(DateLayout)
	case time.Time:
		return v.Format(DateLayout)
	case string:
		return v
	default:
		return ""
	}
}

func toPropsMap(val any) (map[string]any, bool) {
	switch v := val.(type) {
	case map[string]any:
		return v, true
	case dbtype.Node:
		return v.Props, true
	default:
		return nil, false
	}
}
