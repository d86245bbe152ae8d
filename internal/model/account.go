package model

// Account is an onboarded user of the prospecting service. Notifications for
// newly discovered leads go to the account's contact email.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry"`
}

// Product describes what the account is selling.
type Product struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ICP is the account's ideal-customer profile.
type ICP struct {
	ID               string   `json:"id"`
	AccountID        string   `json:"account_id"`
	TargetIndustries []string `json:"target_industries"`
	TargetPainPoints []string `json:"target_pain_points"`
	Geography        string   `json:"geography"`
}

// Profile joins an account with its product and ICP for one prospecting run.
// It is immutable input: the run never mutates it.
type Profile struct {
	Account            Account
	ProductName        string
	ProductDescription string
	TargetIndustries   []string
	TargetPainPoints   []string
	Geography          string
}

// Complete reports whether the profile carries enough data to run. A profile
// with no product or no ICP is skipped with a warning, never treated as a
// run failure.
func (p Profile) Complete() bool {
	return p.ProductName != "" && p.ProductDescription != ""
}
