// Per-site adapters own every selector and every piece of magic site
// text. The core pipeline only sees this package's types.

package site

// Posting is one scraped job listing.
type Posting struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	CompanyName   string   `json:"companyName"`
	RecruiterName string   `json:"recruiter"`
	AreaText      string   `json:"area"`
	SalaryText    string   `json:"salary"`
	Tags          []string `json:"tags"`
	DetailURL     string   `json:"detailUrl"`
}

// Selectors names the page elements the apply flow touches. Syntax is
// whatever the underlying driver understands.
type Selectors struct {
	ListingContainer  string
	ListingItem       string
	ChatButton        string
	Dialog            string
	MessageBox        string
	SendButton        string
	MyMessage         string
	JobDescription    string
	RecruiterActivity string
	ImageUpload       string
}

// DialogStatus is the mapped meaning of the dialog a contact click
// produces.
type DialogStatus int

const (
	DialogOK DialogStatus = iota
	// DialogQuotaExceeded means the site's daily contact cap is hit.
	// This stops the whole run, not just the posting.
	DialogQuotaExceeded
)

// Adapter binds the pipeline to one job board.
type Adapter interface {
	Name() string

	// SearchURL builds the listing URL for one (city, keyword) unit.
	SearchURL(cityCode, keyword string) string

	Selectors() Selectors

	// ExtractPostings parses the listing container's HTML into Postings.
	ExtractPostings(html string) ([]Posting, error)

	// ChatButtonReady reports whether the contact button's label means
	// a fresh conversation can be opened.
	ChatButtonReady(label string) bool

	// MapDialog translates site dialog text into the core taxonomy.
	MapDialog(text string) DialogStatus

	// IsChallenge reports whether a page fingerprint looks like a bot
	// verification challenge.
	IsChallenge(fingerprint string) bool

	// IsInactiveRecruiter reports whether recruiter activity text
	// matches one of the configured inactivity phrases.
	IsInactiveRecruiter(activityText string) bool
}
