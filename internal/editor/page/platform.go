// Package page extracts platform data from a storefront document: whether
// the page belongs to a supported webshop, which shop it is, and what kind
// of page is being viewed. Everything here is best-effort field mapping; a
// page that does not qualify simply yields IsStorefront=false.
package page

import (
	"encoding/json"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// GeneratorName is the meta generator value identifying a supported shop.
const GeneratorName = "DanDomain Webshop"

var (
	shopIDRe   = regexp.MustCompile(`(shop\d+)\.sfstatic\.io`)
	platformRe = regexp.MustCompile(`(?s)window\.platform\s*=\s*(\{.*?\})\s*;`)
)

// PlatformData is what the host page exposes about itself.
type PlatformData struct {
	IsStorefront bool
	ShopID       string
	PageType     string
	PageID       string
	CategoryID   string
	LanguageISO  string
}

// IsCategoryPage reports whether the page renders a product category.
func (p PlatformData) IsCategoryPage() bool {
	return p.PageType == "category" || (p.CategoryID != "" && p.PageType != "product")
}

// EditableCategoryID returns the category to edit, falling back to the page
// id the way the original templating exposes listing pages.
func (p PlatformData) EditableCategoryID() string {
	if p.CategoryID != "" {
		return p.CategoryID
	}
	return p.PageID
}

// platformObject mirrors the subset of the embedded window.platform object
// the editor needs. The backend renders it as a JSON literal.
type platformObject struct {
	General struct {
		LanguageISO string `json:"languageIso"`
	} `json:"general"`
	Page struct {
		Type       string          `json:"type"`
		ID         json.RawMessage `json:"id"`
		CategoryID json.RawMessage `json:"categoryId"`
	} `json:"page"`
	Template struct {
		CDN string `json:"cdn"`
	} `json:"template"`
}

// Detect inspects a parsed document. The generator meta tag is the
// qualifying signal; the shop id comes from CDN references, and page
// details from the embedded platform object when present.
func Detect(doc *goquery.Document) PlatformData {
	var data PlatformData

	generator, _ := doc.Find(`meta[name="generator"]`).Attr("content")
	if generator != GeneratorName {
		return data
	}
	data.IsStorefront = true

	raw, err := doc.Html()
	if err != nil {
		return data
	}

	if m := shopIDRe.FindStringSubmatch(raw); m != nil {
		data.ShopID = m[1]
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := platformRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}

		var obj platformObject
		if err := json.Unmarshal([]byte(m[1]), &obj); err != nil {
			// The object is occasionally a JS literal rather than JSON;
			// page details are then simply unavailable.
			return true
		}

		data.PageType = obj.Page.Type
		data.PageID = rawID(obj.Page.ID)
		data.CategoryID = rawID(obj.Page.CategoryID)
		data.LanguageISO = obj.General.LanguageISO

		if data.ShopID == "" {
			if cm := shopIDRe.FindStringSubmatch(obj.Template.CDN); cm != nil {
				data.ShopID = cm[1]
			}
		}
		return false
	})

	return data
}

// rawID normalizes an id that the platform object renders either as a JSON
// number or a string.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
