package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/webshoptools/shopedit/internal/editor/app"
	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/internal/editor/page"
	"github.com/webshoptools/shopedit/internal/editor/service"
	"github.com/webshoptools/shopedit/pkg/editorx"
	"github.com/webshoptools/shopedit/pkg/htmlx"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// consoleNotifier prints session notices to the user rather than the log.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Notify(_ context.Context, notice service.Notice) {
	prefix := "info"
	switch notice.Kind {
	case service.NoticeSuccess:
		prefix = "ok"
	case service.NoticeError:
		prefix = "error"
	}
	fmt.Fprintf(n.w, "[%s] %s\n", prefix, notice.Message)
}

func newEditCmd(application **app.Application) *cobra.Command {
	var (
		pageURL  string
		pageFile string
		host     string
		field    string
		content  string
		editor   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a category field directly on its storefront page",
		Long: `Edit loads a storefront category page, locates the element rendering the
chosen content field, opens the field in an editor and saves the result back
to the shop. The rewritten page, with the preview applied, is written to
--output when given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			ctx := slogx.WithContext(cmd.Context(), a.Logger())

			fieldType := domain.FieldType(strings.ToLower(field))
			if fieldType != domain.FieldSummary && fieldType != domain.FieldDescription {
				return fmt.Errorf("unknown field %q, expected summary or description", field)
			}

			doc, pageHost, err := loadDocument(ctx, pageURL, pageFile)
			if err != nil {
				return err
			}
			if host != "" {
				pageHost = host
			}

			platform := page.Detect(doc)
			if !platform.IsStorefront {
				return fmt.Errorf("page is not a supported storefront")
			}
			if !platform.IsCategoryPage() {
				return fmt.Errorf("page is not a category page (type %q)", platform.PageType)
			}
			if platform.ShopID == "" {
				return fmt.Errorf("could not determine the shop id from the page")
			}
			shopID := platform.ShopID
			ctx = slogx.WithShop(ctx, shopID)

			if err := checkWhitelist(ctx, a, pageHost); err != nil {
				return err
			}

			validation := a.Facade.ValidateShopAndDomain(ctx, shopID, pageHost)
			if !validation.IsValid {
				return fmt.Errorf("shop validation failed: %s", validation.Err)
			}

			factory := editorFactory(content, editor)
			controller := service.NewController(a.Categories, a.Facade, factory, consoleNotifier{w: cmd.ErrOrStderr()})

			body := htmlx.Body(doc.Get(0))
			if body == nil {
				return fmt.Errorf("page has no body element")
			}
			if err := controller.Start(ctx, body, shopID, platform.EditableCategoryID(), validation.LanguageID); err != nil {
				return err
			}
			if err := controller.BeginEdit(ctx, fieldType); err != nil {
				return err
			}
			if err := controller.Save(ctx, fieldType); err != nil {
				return err
			}

			return writeDocument(doc, output)
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "storefront page URL to load")
	cmd.Flags().StringVar(&pageFile, "file", "", "local HTML file to load instead of a URL")
	cmd.Flags().StringVar(&host, "host", "", "override the hostname used for language detection and the whitelist")
	cmd.Flags().StringVar(&field, "field", "description", "content field to edit: summary or description")
	cmd.Flags().StringVar(&content, "content", "", "replacement HTML; skips the interactive editor")
	cmd.Flags().StringVar(&editor, "editor", "", "editor program (default $EDITOR, then vi)")
	cmd.Flags().StringVar(&output, "output", "", "write the rewritten page to this file")
	cmd.MarkFlagsOneRequired("url", "file")
	cmd.MarkFlagsMutuallyExclusive("url", "file")
	return cmd
}

func loadDocument(ctx context.Context, pageURL, pageFile string) (*goquery.Document, string, error) {
	if pageFile != "" {
		f, err := os.Open(pageFile)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()

		doc, err := goquery.NewDocumentFromReader(f)
		return doc, "", err
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid page URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	return doc, strings.ToLower(u.Hostname()), err
}

// checkWhitelist enforces the stored host whitelist. An empty list means no
// restriction.
func checkWhitelist(ctx context.Context, a *app.Application, host string) error {
	hosts, err := a.Store().Settings().DomainWhitelist(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 || host == "" {
		return nil
	}

	stripped := strings.TrimPrefix(host, "www.")
	for _, h := range hosts {
		if h == host || h == stripped {
			return nil
		}
	}
	return fmt.Errorf("host %s is not on the whitelist", host)
}

// editorFactory builds field editors: a scripted buffer when replacement
// content is given on the command line, an external editor otherwise.
func editorFactory(content, editor string) editorx.Factory {
	return func(field string) editorx.Editor {
		if content != "" {
			b := editorx.NewBuffer()
			b.Transform = func(string) string { return content }
			return b
		}
		return editorx.NewCommand(editor, field)
	}
}

func writeDocument(doc *goquery.Document, output string) error {
	if output == "" {
		return nil
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, n := range doc.Nodes {
		if err := html.Render(f, n); err != nil {
			return err
		}
	}
	return nil
}
