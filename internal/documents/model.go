package documents

import "time"

// Scope says whether a document belongs to a case or to the user's vault.
type Scope string

const (
	ScopeCase  Scope = "case"
	ScopeVault Scope = "vault"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeCase || s == ScopeVault
}

// Categories a document may be filed under. Unknown values fall back to
// CategoryOther.
const (
	CategoryCourtFiling = "court_filing"
	CategoryWill        = "will"
	CategoryDeathCert   = "death_certificate"
	CategoryFinancial   = "financial"
	CategoryProperty    = "property"
	CategoryIdentity    = "identity"
	CategoryOther       = "other"
)

var knownCategories = map[string]struct{}{
	CategoryCourtFiling: {},
	CategoryWill:        {},
	CategoryDeathCert:   {},
	CategoryFinancial:   {},
	CategoryProperty:    {},
	CategoryIdentity:    {},
	CategoryOther:       {},
}

// NormalizeCategory maps raw to a known category.
func NormalizeCategory(raw string) string {
	if _, ok := knownCategories[raw]; ok {
		return raw
	}
	return CategoryOther
}

// Document is an uploaded file's metadata. The bytes live in the object
// store under StorageKey.
type Document struct {
	ID              string
	UserID          string
	CaseID          string
	Scope           Scope
	Category        string
	FileName        string
	MimeType        string
	SizeBytes       int64
	StorageProvider string
	StorageKey      string
	PageCount       int
	UploadedBy      string
	CreatedAt       time.Time
}
