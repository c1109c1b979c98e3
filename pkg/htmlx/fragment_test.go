package htmlx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/webshoptools/shopedit/pkg/htmlx"
)

func TestParseFragmentText(t *testing.T) {
	t.Parallel()

	f, err := htmlx.ParseFragment(`<p>Hello <b>world</b></p>`)
	require.NoError(t, err)
	require.Equal(t, "Hello world", f.Text())
}

func TestIsCompleteWrapper(t *testing.T) {
	t.Parallel()

	t.Run("single wrapping element", func(t *testing.T) {
		f, err := htmlx.ParseFragment(`<div class="summary"><p>Text</p></div>`)
		require.NoError(t, err)
		require.True(t, f.IsCompleteWrapper())
	})

	t.Run("bare text run", func(t *testing.T) {
		f, err := htmlx.ParseFragment(`Just some text`)
		require.NoError(t, err)
		require.False(t, f.IsCompleteWrapper())
	})

	t.Run("text beside an element", func(t *testing.T) {
		f, err := htmlx.ParseFragment(`Intro <b>bold</b>`)
		require.NoError(t, err)
		require.False(t, f.IsCompleteWrapper())
	})

	t.Run("two sibling elements", func(t *testing.T) {
		f, err := htmlx.ParseFragment(`<p>One</p><p>Two</p>`)
		require.NoError(t, err)
		require.False(t, f.IsCompleteWrapper())
	})
}

func TestSetInnerHTML(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(`<html><body><div id="x"><p>old</p></div></body></html>`))
	require.NoError(t, err)

	body := htmlx.Body(doc)
	require.NotNil(t, body)
	div := htmlx.ElementChildren(body)[0]

	require.NoError(t, htmlx.SetInnerHTML(div, `<span>new</span>`))

	inner, err := htmlx.InnerHTML(div)
	require.NoError(t, err)
	require.Equal(t, `<span>new</span>`, inner)
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	f, err := htmlx.ParseFragment(`<div class="a"></div>`)
	require.NoError(t, err)
	n := f.Nodes()[0]

	v, ok := htmlx.Attr(n, "class")
	require.True(t, ok)
	require.Equal(t, "a", v)

	htmlx.SetAttr(n, "style", "display:none")
	v, ok = htmlx.Attr(n, "style")
	require.True(t, ok)
	require.Equal(t, "display:none", v)

	htmlx.SetAttr(n, "class", "b")
	v, _ = htmlx.Attr(n, "class")
	require.Equal(t, "b", v)
}
