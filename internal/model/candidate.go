package model

// Candidate is a URL discovered during search, not yet confirmed as a company
// site. Candidates are scoped to a single run and deduplicated within it by
// NormalizeWebsite of the URL.
type Candidate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ExtractedCompany is the structured summary the extractor produces for a
// candidate. Every field is always populated: missing data is replaced by the
// "None found" sentinel or a derived contact@<domain> address, never left
// empty or null.
type ExtractedCompany struct {
	CompanyName        string `json:"company_name"`
	LeadName           string `json:"lead_name"`
	LeadEmail          string `json:"lead_email"`
	CompanyWebsite     string `json:"company_website"`
	CompanyDescription string `json:"company_description"`
}

// SentinelNoneFound marks extracted fields with no recoverable value.
const SentinelNoneFound = "None found"
