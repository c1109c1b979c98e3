package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/pkg/editorx"
	"github.com/webshoptools/shopedit/pkg/htmlx"
	"github.com/webshoptools/shopedit/pkg/idx"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// ErrNoEditableContent is returned by Start when none of the category's
// content fields could be matched to a page element.
var ErrNoEditableContent = errors.New("no editable content elements found on page")

// FieldState is the lifecycle state of one field's editing session.
type FieldState int

const (
	StateLocated FieldState = iota
	StatePreviewing
	StateEditing
	StateSaving
)

func (s FieldState) String() string {
	switch s {
	case StateLocated:
		return "located"
	case StatePreviewing:
		return "previewing"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NoticeKind classifies user-visible notices.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier receives the transient notices the controller emits. The
// controller is the single point converting I/O failures into user-visible
// messages.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to the contextual logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notice) {
	l := slogx.FromContext(ctx)
	switch n.Kind {
	case NoticeError:
		l.Error(n.Message)
	default:
		l.Info(n.Message)
	}
}

// FieldSession is the editing session of a single content field. It lives
// until page navigation; across saves it persists and tracks the latest
// saved markup as its original.
type FieldSession struct {
	ID    idx.ID
	Field domain.FieldType

	state        FieldState
	originalHTML string
	element      *html.Node
	preview      *html.Node
	editor       editorx.Editor
}

func (s *FieldSession) State() FieldState    { return s.state }
func (s *FieldSession) OriginalHTML() string { return s.originalHTML }

// Element returns the live page element the session is bound to.
func (s *FieldSession) Element() *html.Node { return s.element }

// Preview returns the preview surface mirroring the element's markup.
func (s *FieldSession) Preview() *html.Node { return s.preview }

// categoryProvider is what the controller needs from the category cache.
type categoryProvider interface {
	GetCategoryDetails(ctx context.Context, shopID, categoryID string, languageID int) (*domain.CategoryRecord, error)
	ClearShop(ctx context.Context, shopID string) error
}

// fieldUpdater is what the controller needs from the facade.
type fieldUpdater interface {
	UpdateCategoryField(ctx context.Context, shopID, categoryID string, languageID int, field domain.FieldType, title, content string) error
}

// brRe matches literal line-break markup, which is converted to soft
// newlines when content is loaded into the editor; the editor represents
// breaks internally as paragraph boundaries.
var brRe = regexp.MustCompile(`(?i)<br\s*/?>`)

// Controller orchestrates the per-field editing lifecycle on one category
// page: locate element, attach a preview surface, toggle edit and preview,
// persist single-field mutations, and keep the live document in sync.
// Summary and description sessions are fully independent.
type Controller struct {
	Categories categoryProvider
	Updater    fieldUpdater
	Editors    editorx.Factory
	Notifier   Notifier

	shopID     string
	categoryID string
	languageID int
	title      string

	sessions map[domain.FieldType]*FieldSession
}

func NewController(categories categoryProvider, updater fieldUpdater, editors editorx.Factory, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Controller{
		Categories: categories,
		Updater:    updater,
		Editors:    editors,
		Notifier:   notifier,
		sessions:   make(map[domain.FieldType]*FieldSession),
	}
}

// Start loads the category's translation, locates the page element for each
// content field, and opens a session per field found. Fields whose content
// cannot be matched are logged and skipped; only a page with no matches at
// all is an error.
func (c *Controller) Start(ctx context.Context, body *html.Node, shopID, categoryID string, languageID int) error {
	category, err := c.Categories.GetCategoryDetails(ctx, shopID, categoryID, languageID)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category %s not found for shop %s", categoryID, shopID)
	}

	content := category.Content()
	c.shopID = shopID
	c.categoryID = categoryID
	c.languageID = languageID
	c.title = content.Title

	l := slogx.FromContext(ctx)
	for field, markup := range map[domain.FieldType]string{
		domain.FieldSummary:     content.Summary,
		domain.FieldDescription: content.Description,
	} {
		element, err := LocateContent(body, markup)
		if err != nil {
			return err
		}
		if element == nil {
			// A miss is expected when the theme does not render the field.
			l.Info("no matching element for field",
				slog.String("field", string(field)),
				slog.String("category_id", categoryID),
			)
			continue
		}
		if err := c.openSession(field, element); err != nil {
			return err
		}
	}

	if len(c.sessions) == 0 {
		return ErrNoEditableContent
	}
	return nil
}

// openSession captures the element's markup, mounts a preview surface in
// front of it and hides the original so content is not shown twice.
func (c *Controller) openSession(field domain.FieldType, element *html.Node) error {
	original, err := htmlx.InnerHTML(element)
	if err != nil {
		return err
	}

	session := &FieldSession{
		ID:           idx.New(),
		Field:        field,
		state:        StateLocated,
		originalHTML: original,
		element:      element,
	}

	preview := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	if class, ok := htmlx.Attr(element, "class"); ok {
		htmlx.SetAttr(preview, "class", class)
	}
	htmlx.SetAttr(preview, "data-shopedit-preview", string(field))
	if err := htmlx.SetInnerHTML(preview, original); err != nil {
		return err
	}

	if element.Parent != nil {
		element.Parent.InsertBefore(preview, element)
	}
	htmlx.SetAttr(element, "style", "display:none")

	session.preview = preview
	session.state = StatePreviewing

	c.sessions[field] = session
	return nil
}

// Session returns the field's session, or nil when the field was never
// matched.
func (c *Controller) Session(field domain.FieldType) *FieldSession {
	return c.sessions[field]
}

// Fields returns the fields with open sessions in stable order.
func (c *Controller) Fields() []domain.FieldType {
	out := make([]domain.FieldType, 0, len(c.sessions))
	for f := range c.sessions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BeginEdit switches a previewing field into editing: the editor surface is
// created on first use, loaded with the field's original HTML (line-break
// markup softened to newlines) and focused.
func (c *Controller) BeginEdit(ctx context.Context, field domain.FieldType) error {
	session := c.sessions[field]
	if session == nil {
		return fmt.Errorf("no session for field %s", field)
	}
	if session.state != StatePreviewing {
		return fmt.Errorf("cannot edit %s while %s", field, session.state)
	}

	if session.editor == nil {
		session.editor = c.Editors(string(field))
	}

	session.editor.SetData(brRe.ReplaceAllString(session.originalHTML, "\n"))
	session.editor.Focus()
	session.state = StateEditing
	return nil
}

// Save persists the field being edited. Unchanged content short-circuits
// back to previewing without any network I/O. A successful save updates the
// live element and preview, invalidates the tenant's whole category cache
// and returns to previewing; a failed save stays in editing so the user can
// retry.
func (c *Controller) Save(ctx context.Context, field domain.FieldType) error {
	session := c.sessions[field]
	if session == nil {
		return fmt.Errorf("no session for field %s", field)
	}
	if session.state != StateEditing {
		return fmt.Errorf("cannot save %s while %s", field, session.state)
	}

	current := session.editor.GetData()
	if current == session.originalHTML {
		c.Notifier.Notify(ctx, Notice{
			Kind:    NoticeInfo,
			Message: fmt.Sprintf("No changes detected in %s", field),
		})
		session.state = StatePreviewing
		return nil
	}

	session.state = StateSaving
	err := c.Updater.UpdateCategoryField(ctx, c.shopID, c.categoryID, c.languageID, field, c.title, current)
	if err != nil {
		c.Notifier.Notify(ctx, Notice{
			Kind:    NoticeError,
			Message: fmt.Sprintf("Failed to save %s: %v", field, err),
		})
		session.state = StateEditing
		return err
	}

	session.originalHTML = current
	if err := htmlx.SetInnerHTML(session.element, current); err != nil {
		return err
	}
	if err := htmlx.SetInnerHTML(session.preview, current); err != nil {
		return err
	}

	if err := c.Categories.ClearShop(ctx, c.shopID); err != nil {
		// Stale cache resolves itself on expiry; the save already succeeded.
		slogx.FromContext(ctx).Warn("failed to clear category cache",
			slog.String("shop_id", c.shopID), slog.String("error", err.Error()))
	}

	c.Notifier.Notify(ctx, Notice{
		Kind:    NoticeSuccess,
		Message: fmt.Sprintf("%s saved successfully", session.Field.DisplayName()),
	})
	session.state = StatePreviewing
	return nil
}
