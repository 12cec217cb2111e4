package model

// User is a profile node keyed by mobile number. The userId is generated
// once at first registration and never reassigned. Custom carries any
// additional allow-listed properties attached to the node.
type User struct {
	Mobile           string         `json:"mobile"`
	UserID           string         `json:"user_id"`
	Name             string         `json:"name,omitempty"`
	FirstName        string         `json:"first_name,omitempty"`
	LastName         string         `json:"last_name,omitempty"`
	Email            string         `json:"email,omitempty"`
	ReferralType     string         `json:"referral_type"`
	ReferredByMobile string         `json:"referred_by_mobile,omitempty"`
	ReferredByName   string         `json:"referred_by_name,omitempty"`
	Verified         bool           `json:"verified"`
	FormFilled       bool           `json:"form_filled"`
	DeviceID         string         `json:"device_id,omitempty"`
	DeviceModel      string         `json:"device_model,omitempty"`
	Address          string         `json:"address,omitempty"`
	City             string         `json:"city,omitempty"`
	State            string         `json:"state,omitempty"`
	Pincode          string         `json:"pincode,omitempty"`
	Occupation       string         `json:"occupation,omitempty"`
	IncomeLevel      string         `json:"income_level,omitempty"`
	FamilySize       int            `json:"family_size,omitempty"`
	Aadhaar          string         `json:"aadhaar,omitempty"`
	PAN              string         `json:"pan,omitempty"`
	DateOfBirth      string         `json:"date_of_birth,omitempty"`
	Custom           map[string]any `json:"custom,omitempty"`
}

// Referral registration types.
const (
	ReferralTypeNew      = "new_referral"
	ReferralTypeCustomer = "existing_customer"
)

// Product is a buffalo listing managed by the offline seeder.
type Product struct {
	ID          string   `json:"id"`
	Breed       string   `json:"breed"`
	Age         int      `json:"age"`
	MilkYield   float64  `json:"milkYield"`
	Price       float64  `json:"price"`
	InStock     bool     `json:"inStock"`
	Insurance   float64  `json:"insurance"`
	Images      []string `json:"buffalo_images"`
	Description string   `json:"description"`
}

// Purchase records a PURCHASED relationship from a user to a purchase node.
// Write-once; never mutated or deleted by this service.
type Purchase struct {
	ID      string `json:"id"`
	Mobile  string `json:"mobile"`
	Item    string `json:"item"`
	Details string `json:"details"`
}
