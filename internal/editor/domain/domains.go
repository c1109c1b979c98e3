package domain

// RegisteredDomain is one storefront domain as registered on the backend.
// GraphQL returns the numeric fields as ID strings; the facade parses them.
type RegisteredDomain struct {
	ID         int
	SiteID     int
	LanguageID int
	Domain     string
}

// DomainResolution is the outcome of matching the page's hostname against
// the tenant's registered domains. It is derived on every initialization and
// never stored.
type DomainResolution struct {
	LanguageID int
	SiteID     int
	Domain     string
	// DomainID is nil when no registered domain matched and the defaults
	// were applied.
	DomainID *int
}

// ShopValidation is the structured result of validating a tenant and its
// domain context. It never carries a Go error; failures are reported in
// Err with IsValid false.
type ShopValidation struct {
	IsValid    bool
	Err        string
	DomainInfo *DomainResolution
	LanguageID int
	SiteID     int
}
