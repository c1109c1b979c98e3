package htmlx

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is a detached piece of server-authored HTML, parsed outside any
// live document. It is the match target handed to the content locator.
type Fragment struct {
	nodes []*html.Node

	text      string
	innerHTML string
}

// ParseFragment parses markup in a div context, the way a browser populates
// a detached container from an HTML string. The serialized forms exposed by
// the Fragment are re-rendered, so comparisons against other re-rendered
// markup are normalization-consistent.
func ParseFragment(markup string) (*Fragment, error) {
	ctxNode := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), ctxNode)
	if err != nil {
		return nil, err
	}

	f := &Fragment{nodes: nodes}

	var text, rendered strings.Builder
	for _, n := range nodes {
		text.WriteString(Text(n))
		out, err := OuterHTML(n)
		if err != nil {
			return nil, err
		}
		rendered.WriteString(out)
	}
	f.text = text.String()
	f.innerHTML = strings.TrimSpace(rendered.String())

	return f, nil
}

// Nodes returns the top-level parsed nodes.
func (f *Fragment) Nodes() []*html.Node { return f.nodes }

// Text returns the concatenated text content of the fragment.
func (f *Fragment) Text() string { return f.text }

// InnerHTML returns the normalized serialization of the whole fragment,
// trimmed of surrounding whitespace.
func (f *Fragment) InnerHTML() string { return f.innerHTML }

// IsCompleteWrapper reports whether the fragment is a single wrapping
// element: exactly one top-level element whose serialized markup equals the
// fragment's own serialization. A bare run of text or inline siblings is not
// a complete wrapper.
func (f *Fragment) IsCompleteWrapper() bool {
	var only *html.Node
	for _, n := range f.nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if only != nil {
			return false
		}
		only = n
	}
	if only == nil {
		return false
	}

	out, err := OuterHTML(only)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == f.innerHTML
}
