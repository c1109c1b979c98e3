package domain

import "fmt"

// FieldType names an editable category content field.
type FieldType string

const (
	FieldSummary     FieldType = "summary"
	FieldDescription FieldType = "description"
)

// DisplayName returns the capitalized label used in user-facing notices.
func (f FieldType) DisplayName() string {
	switch f {
	case FieldSummary:
		return "Summary"
	case FieldDescription:
		return "Description"
	default:
		return string(f)
	}
}

// TranslationData holds one language's content for a category.
type TranslationData struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// Translation wraps TranslationData the way the backend nests it.
type Translation struct {
	Data TranslationData `json:"data"`
}

// CategoryRecord is one product category as fetched from the backend. The
// facade requests exactly one language per fetch, so Translations[0] is the
// translation for the resolved language.
type CategoryRecord struct {
	ID           string        `json:"id"`
	Translations []Translation `json:"translations"`
}

// Content returns the single-language translation data, or a zero value when
// the record carries no translations.
func (c CategoryRecord) Content() TranslationData {
	if len(c.Translations) == 0 {
		return TranslationData{}
	}
	return c.Translations[0].Data
}

// CachedCategorySet is the stored per-(tenant, language) fetch result.
type CachedCategorySet struct {
	Categories []CategoryRecord `json:"categories"`
	// FetchedAt is epoch milliseconds.
	FetchedAt int64 `json:"fetchedAt"`
}

// CategoryCacheKey builds the storage key for a tenant/language pair.
func CategoryCacheKey(shopID string, languageID int) string {
	return fmt.Sprintf("categories_%s_%d", shopID, languageID)
}

// CategoryCachePrefix is the key prefix covering every language of a tenant.
func CategoryCachePrefix(shopID string) string {
	return fmt.Sprintf("categories_%s_", shopID)
}
