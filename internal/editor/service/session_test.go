package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/pkg/editorx"
	"github.com/webshoptools/shopedit/pkg/htmlx"
)

type fakeCategories struct {
	record  *domain.CategoryRecord
	err     error
	cleared []string
}

func (f *fakeCategories) GetCategoryDetails(_ context.Context, _, _ string, _ int) (*domain.CategoryRecord, error) {
	return f.record, f.err
}

func (f *fakeCategories) ClearShop(_ context.Context, shopID string) error {
	f.cleared = append(f.cleared, shopID)
	return nil
}

type updateCall struct {
	shopID     string
	categoryID string
	languageID int
	field      domain.FieldType
	title      string
	content    string
}

type fakeUpdater struct {
	err   error
	calls []updateCall
}

func (f *fakeUpdater) UpdateCategoryField(_ context.Context, shopID, categoryID string, languageID int, field domain.FieldType, title, content string) error {
	f.calls = append(f.calls, updateCall{shopID, categoryID, languageID, field, title, content})
	return f.err
}

type fakeNotifier struct {
	notices []Notice
}

func (f *fakeNotifier) Notify(_ context.Context, n Notice) {
	f.notices = append(f.notices, n)
}

func (f *fakeNotifier) last(t *testing.T) Notice {
	t.Helper()
	require.NotEmpty(t, f.notices)
	return f.notices[len(f.notices)-1]
}

func bufferFactory(buffers map[string]*editorx.Buffer) editorx.Factory {
	return func(field string) editorx.Editor {
		b := editorx.NewBuffer()
		buffers[field] = b
		return b
	}
}

func categoryFixture() *domain.CategoryRecord {
	return &domain.CategoryRecord{
		ID: "42",
		Translations: []domain.Translation{{Data: domain.TranslationData{
			Title:       "Shoes",
			Summary:     `Quality footwear since <b>1968</b>`,
			Description: `Great shoes for <b>everyone</b>`,
		}}},
	}
}

const categoryPage = `<html><body>
	<div id="content">
		<div class="cat-desc" id="desc">Great shoes for <b>everyone</b> here</div>
		<p id="sum">Quality footwear since 1968 always</p>
	</div>
</body></html>`

type sessionFixture struct {
	controller *Controller
	categories *fakeCategories
	updater    *fakeUpdater
	notifier   *fakeNotifier
	buffers    map[string]*editorx.Buffer
}

func startController(t *testing.T, page string, record *domain.CategoryRecord) sessionFixture {
	t.Helper()

	fx := sessionFixture{
		categories: &fakeCategories{record: record},
		updater:    &fakeUpdater{},
		notifier:   &fakeNotifier{},
		buffers:    map[string]*editorx.Buffer{},
	}
	fx.controller = NewController(fx.categories, fx.updater, bufferFactory(fx.buffers), fx.notifier)

	body := parseBody(t, page)
	require.NoError(t, fx.controller.Start(context.Background(), body, "shop4001", "42", 3))
	return fx
}

func TestStartOpensSessionPerLocatedField(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())

	require.Equal(t, []domain.FieldType{domain.FieldDescription, domain.FieldSummary}, fx.controller.Fields())

	desc := fx.controller.Session(domain.FieldDescription)
	require.NotNil(t, desc)
	require.Equal(t, StatePreviewing, desc.State())
	require.Equal(t, `Great shoes for <b>everyone</b> here`, desc.OriginalHTML())

	// The original element is hidden behind a preview surface mirroring its
	// class and markup.
	style, _ := htmlx.Attr(desc.Element(), "style")
	require.Equal(t, "display:none", style)

	preview := desc.Preview()
	require.NotNil(t, preview)
	require.Equal(t, "cat-desc", attrOf(t, preview, "class"))
	require.Equal(t, "description", attrOf(t, preview, "data-shopedit-preview"))

	previewHTML, err := htmlx.InnerHTML(preview)
	require.NoError(t, err)
	require.Equal(t, desc.OriginalHTML(), previewHTML)

	sum := fx.controller.Session(domain.FieldSummary)
	require.NotNil(t, sum)
	require.Equal(t, StatePreviewing, sum.State())
}

func TestStartSkipsUnmatchedFields(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<div class="cat-desc" id="desc">Great shoes for <b>everyone</b> here</div>
	</body></html>`

	fx := startController(t, page, categoryFixture())

	require.NotNil(t, fx.controller.Session(domain.FieldDescription))
	require.Nil(t, fx.controller.Session(domain.FieldSummary))
}

func TestStartFailsWhenNothingMatches(t *testing.T) {
	t.Parallel()

	c := NewController(&fakeCategories{record: categoryFixture()}, &fakeUpdater{}, bufferFactory(map[string]*editorx.Buffer{}), &fakeNotifier{})
	body := parseBody(t, `<html><body><p>unrelated page</p></body></html>`)

	err := c.Start(context.Background(), body, "shop4001", "42", 3)
	require.ErrorIs(t, err, ErrNoEditableContent)
}

func TestStartFailsWhenCategoryMissing(t *testing.T) {
	t.Parallel()

	c := NewController(&fakeCategories{record: nil}, &fakeUpdater{}, bufferFactory(map[string]*editorx.Buffer{}), &fakeNotifier{})
	body := parseBody(t, categoryPage)

	err := c.Start(context.Background(), body, "shop4001", "42", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestBeginEditLoadsAndFocusesEditor(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())
	ctx := context.Background()

	require.NoError(t, fx.controller.BeginEdit(ctx, domain.FieldDescription))

	session := fx.controller.Session(domain.FieldDescription)
	require.Equal(t, StateEditing, session.State())

	buf := fx.buffers["description"]
	require.NotNil(t, buf)
	require.True(t, buf.Focused())
	require.Equal(t, `Great shoes for <b>everyone</b> here`, buf.GetData())

	// Editing twice in a row is rejected; the session must preview first.
	require.Error(t, fx.controller.BeginEdit(ctx, domain.FieldDescription))
}

func TestBeginEditSoftensLineBreaks(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<div id="desc">Line one<br/>Line two extra</div>
	</body></html>`
	record := &domain.CategoryRecord{
		ID: "42",
		Translations: []domain.Translation{{Data: domain.TranslationData{
			Title:       "Shoes",
			Description: `Line one<br>Line two`,
		}}},
	}

	fx := startController(t, page, record)
	require.NoError(t, fx.controller.BeginEdit(context.Background(), domain.FieldDescription))

	require.Equal(t, "Line one\nLine two extra", fx.buffers["description"].GetData())
}

func TestSaveUnchangedContentSkipsNetwork(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())
	ctx := context.Background()

	require.NoError(t, fx.controller.BeginEdit(ctx, domain.FieldSummary))
	require.NoError(t, fx.controller.Save(ctx, domain.FieldSummary))

	require.Empty(t, fx.updater.calls)
	require.Empty(t, fx.categories.cleared)
	require.Equal(t, StatePreviewing, fx.controller.Session(domain.FieldSummary).State())

	notice := fx.notifier.last(t)
	require.Equal(t, NoticeInfo, notice.Kind)
	require.Contains(t, notice.Message, "No changes")
}

func TestSavePersistsChangedFieldAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())
	ctx := context.Background()

	require.NoError(t, fx.controller.BeginEdit(ctx, domain.FieldDescription))
	fx.buffers["description"].Transform = func(html string) string {
		return `Great shoes for <b>all of us</b> here`
	}

	require.NoError(t, fx.controller.Save(ctx, domain.FieldDescription))

	require.Len(t, fx.updater.calls, 1)
	call := fx.updater.calls[0]
	require.Equal(t, "shop4001", call.shopID)
	require.Equal(t, "42", call.categoryID)
	require.Equal(t, 3, call.languageID)
	require.Equal(t, domain.FieldDescription, call.field)
	require.Equal(t, "Shoes", call.title)
	require.Equal(t, `Great shoes for <b>all of us</b> here`, call.content)

	require.Equal(t, []string{"shop4001"}, fx.categories.cleared)

	session := fx.controller.Session(domain.FieldDescription)
	require.Equal(t, StatePreviewing, session.State())
	require.Equal(t, call.content, session.OriginalHTML())

	elementHTML, err := htmlx.InnerHTML(session.Element())
	require.NoError(t, err)
	require.Equal(t, call.content, elementHTML)

	previewHTML, err := htmlx.InnerHTML(session.Preview())
	require.NoError(t, err)
	require.Equal(t, call.content, previewHTML)

	require.Equal(t, NoticeSuccess, fx.notifier.last(t).Kind)

	// The saved markup is the new baseline: an untouched second edit is a
	// no-change save.
	require.NoError(t, fx.controller.BeginEdit(ctx, domain.FieldDescription))
	require.NoError(t, fx.controller.Save(ctx, domain.FieldDescription))
	require.Len(t, fx.updater.calls, 1)
}

func TestSaveFailureStaysEditing(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())
	fx.updater.err = errors.New("access denied")
	ctx := context.Background()

	require.NoError(t, fx.controller.BeginEdit(ctx, domain.FieldDescription))
	fx.buffers["description"].Transform = func(html string) string {
		return `Broken <b>edit</b>`
	}

	err := fx.controller.Save(ctx, domain.FieldDescription)
	require.Error(t, err)

	session := fx.controller.Session(domain.FieldDescription)
	require.Equal(t, StateEditing, session.State())
	require.Equal(t, `Great shoes for <b>everyone</b> here`, session.OriginalHTML())
	require.Empty(t, fx.categories.cleared)
	require.Equal(t, NoticeError, fx.notifier.last(t).Kind)

	elementHTML, err := htmlx.InnerHTML(session.Element())
	require.NoError(t, err)
	require.Equal(t, session.OriginalHTML(), elementHTML)
}

func TestSaveWithoutEditIsRejected(t *testing.T) {
	t.Parallel()

	fx := startController(t, categoryPage, categoryFixture())

	err := fx.controller.Save(context.Background(), domain.FieldDescription)
	require.Error(t, err)
	require.Empty(t, fx.updater.calls)
}
