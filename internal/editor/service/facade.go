package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/pkg/relay"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// TokenSource supplies bearer tokens and credential validation. The broker
// is the production implementation.
type TokenSource interface {
	GetValidToken(ctx context.Context, shopID string) (string, error)
	ValidateCredentials(ctx context.Context, shopID string) error
}

// Facade translates domain operations into GraphQL calls executed through
// the relay. All errors it raises beyond credential/authentication ones are
// APIError values carrying an aggregated human-readable message.
type Facade struct {
	Tokens TokenSource
	Relay  relay.Relay
}

func NewFacade(tokens TokenSource, rl relay.Relay) *Facade {
	return &Facade{Tokens: tokens, Relay: rl}
}

const queryGetDomains = `
query GetDomains {
  domains {
    data {
      id
      siteId
      languageId
      domain
    }
  }
}`

const queryGetAllCategories = `
query GetAllCategories($languageIds: [ID!]!) {
  productCategories {
    content {
      id
      translations(languageIds: $languageIds) {
        data {
          title
          summary
          description
        }
      }
    }
  }
}`

// graphQLEnvelope is the raw response body shape: data plus an optional
// errors array.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute resolves the tenant's token, runs the operation through the relay
// and unwraps the GraphQL envelope. Transport failures and GraphQL errors[]
// both become a single APIError whose message joins every reported error.
func (f *Facade) Execute(ctx context.Context, query string, variables map[string]any, operationName, shopID string) (json.RawMessage, error) {
	token, err := f.Tokens.GetValidToken(ctx, shopID)
	if err != nil {
		return nil, err
	}

	resp := f.Relay.Do(ctx, relay.Request{
		Action:        relay.ActionGraphQL,
		ShopID:        shopID,
		APIURL:        relay.APIBaseURL(shopID),
		Query:         query,
		Variables:     variables,
		OperationName: operationName,
		AccessToken:   token,
	})
	if !resp.Success {
		return nil, domain.NewAPIError(resp.Error)
	}

	var envelope graphQLEnvelope
	if err := json.Unmarshal(resp.Data, &envelope); err != nil {
		return nil, domain.NewAPIError(fmt.Sprintf("malformed response: %v", err))
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, domain.NewAPIError(messages...)
	}

	return envelope.Data, nil
}

// FetchDomains returns every domain registered for the tenant.
func (f *Facade) FetchDomains(ctx context.Context, shopID string) ([]domain.RegisteredDomain, error) {
	data, err := f.Execute(ctx, queryGetDomains, nil, "GetDomains", shopID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Domains struct {
			Data []struct {
				ID         string `json:"id"`
				SiteID     string `json:"siteId"`
				LanguageID string `json:"languageId"`
				Domain     string `json:"domain"`
			} `json:"data"`
		} `json:"domains"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, domain.NewAPIError(fmt.Sprintf("malformed domains response: %v", err))
	}

	out := make([]domain.RegisteredDomain, 0, len(body.Domains.Data))
	for _, d := range body.Domains.Data {
		out = append(out, domain.RegisteredDomain{
			ID:         atoiLoose(d.ID),
			SiteID:     atoiLoose(d.SiteID),
			LanguageID: atoiLoose(d.LanguageID),
			Domain:     d.Domain,
		})
	}
	return out, nil
}

// DetectLanguage resolves which registered domain, and therefore which
// language and site, the given hostname belongs to. Matching is ordered:
// exact (with and without a www. prefix), then substring containment either
// direction, because storefronts are frequently mirrored on staging and
// alias domains that are not registered exactly. When nothing matches, or
// the domains query itself fails, it falls back to language 1 / site 1 and
// logs the reason. The result is derived per call and never cached.
func (f *Facade) DetectLanguage(ctx context.Context, shopID, hostname string) domain.DomainResolution {
	l := slogx.FromContext(ctx)
	current := strings.ToLower(hostname)
	stripped := strings.TrimPrefix(current, "www.")

	fallback := domain.DomainResolution{LanguageID: 1, SiteID: 1, Domain: current}

	domains, err := f.FetchDomains(ctx, shopID)
	if err != nil {
		l.Warn("failed to fetch registered domains, using default language",
			slog.String("shop_id", shopID), slog.String("error", err.Error()))
		return fallback
	}

	match := func(pred func(string) bool) *domain.RegisteredDomain {
		for i := range domains {
			if pred(strings.ToLower(domains[i].Domain)) {
				return &domains[i]
			}
		}
		return nil
	}

	found := match(func(d string) bool {
		return d == current || d == stripped
	})
	if found == nil {
		found = match(func(d string) bool {
			return strings.Contains(d, stripped) || strings.Contains(stripped, d)
		})
	}

	if found == nil {
		l.Warn("no matching registered domain, defaulting to language 1",
			slog.String("shop_id", shopID), slog.String("hostname", hostname))
		return fallback
	}

	id := found.ID
	return domain.DomainResolution{
		LanguageID: found.LanguageID,
		SiteID:     found.SiteID,
		Domain:     found.Domain,
		DomainID:   &id,
	}
}

// ValidateShopAndDomain checks the tenant's stored credentials and resolves
// its domain context. Credential problems are reported before any network
// call is made; the result never carries a Go error.
func (f *Facade) ValidateShopAndDomain(ctx context.Context, shopID, hostname string) domain.ShopValidation {
	if err := f.Tokens.ValidateCredentials(ctx, shopID); err != nil {
		return domain.ShopValidation{IsValid: false, Err: err.Error()}
	}

	res := f.DetectLanguage(ctx, shopID, hostname)
	return domain.ShopValidation{
		IsValid:    true,
		DomainInfo: &res,
		LanguageID: res.LanguageID,
		SiteID:     res.SiteID,
	}
}

// FetchAllCategories fetches every category with translations for exactly
// one language. Caching lives in CategoryService, not here.
func (f *Facade) FetchAllCategories(ctx context.Context, shopID string, languageID int) ([]domain.CategoryRecord, error) {
	variables := map[string]any{
		"languageIds": []string{strconv.Itoa(languageID)},
	}

	data, err := f.Execute(ctx, queryGetAllCategories, variables, "GetAllCategories", shopID)
	if err != nil {
		return nil, err
	}

	var body struct {
		ProductCategories struct {
			Content []domain.CategoryRecord `json:"content"`
		} `json:"productCategories"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, domain.NewAPIError(fmt.Sprintf("malformed categories response: %v", err))
	}
	return body.ProductCategories.Content, nil
}

// UpdateCategoryField persists exactly one changed content field. The title
// always travels with it because the backend mutation is whole-translation
// shaped; the mutation's variable set and selection name only the changed
// field.
func (f *Facade) UpdateCategoryField(ctx context.Context, shopID, categoryID string, languageID int, field domain.FieldType, title, content string) error {
	mutation := fmt.Sprintf(`
mutation UpdateCategory%[1]s(
  $categoryId: ID!
  $languageId: ID!
  $title: String
  $%[2]s: HTML
) {
  productCategoryUpdate(
    input: {
      id: $categoryId
      translations: [
        {
          languageId: $languageId
          data: {
            title: $title
            %[2]s: $%[2]s
          }
        }
      ]
    }
  ) {
    data {
      updatedAt
      id
      translations {
        data {
          title
          %[2]s
        }
      }
    }
  }
}`, field.DisplayName(), string(field))

	variables := map[string]any{
		"categoryId":  categoryID,
		"languageId":  strconv.Itoa(languageID),
		"title":       title,
		string(field): content,
	}

	operationName := "UpdateCategory" + field.DisplayName()
	_, err := f.Execute(ctx, mutation, variables, operationName, shopID)
	return err
}

// atoiLoose parses backend ID strings, which are numeric. Unparseable input
// maps to 0 rather than failing the whole resolution.
func atoiLoose(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
