package service

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/webshoptools/shopedit/pkg/htmlx"
)

// skipTags are element subtrees the locator never descends into; they carry
// no renderable content.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"meta":     true,
	"link":     true,
}

// matchCandidate is one element under consideration during a single locate
// operation. Candidates are discarded once the best one is selected.
type matchCandidate struct {
	node       *html.Node
	score      float64
	textLength int
	isLeaf     bool
}

// LocateContent finds, among the elements under body, the one that renders
// the given server-authored markup. It returns nil when the fragment has no
// text content or no suitable element exists.
//
// Candidates are every element whose text contains the fragment's text.
// Leaves (elements none of whose direct children also contain the text)
// are preferred over containers; a container's score is halved to bias away
// from broad ancestors. Scores within 5 points count as a tie, which is
// broken by preferring the shortest text, the most specific element.
//
// Two quirks are intentional and must not be generalized:
//
//   - An element whose inner markup is byte-identical to the fragment's
//     aborts the whole locate with no result. Such an element is an exact
//     copy of the source, and selecting it would wrap identical content in
//     itself.
//   - When the fragment is a single complete wrapper element, the
//     second-ranked candidate is selected instead of the first: the top
//     match is then typically the page's own copy of that very wrapper.
//     This rule is empirical, best-effort rather than proven.
func LocateContent(body *html.Node, markup string) (*html.Node, error) {
	frag, err := htmlx.ParseFragment(markup)
	if err != nil {
		return nil, err
	}

	target := strings.TrimSpace(frag.Text())
	if target == "" {
		return nil, nil
	}

	sourceHTML := frag.InnerHTML()
	completeWrapper := frag.IsCompleteWrapper()

	var candidates []matchCandidate
	aborted := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if aborted {
			return
		}
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}

		if n.Type == html.ElementNode && n != body {
			text := htmlx.Text(n)
			if strings.Contains(text, target) {
				inner, err := htmlx.InnerHTML(n)
				if err == nil && strings.TrimSpace(inner) == sourceHTML {
					aborted = true
					return
				}

				candidates = append(candidates, scoreCandidate(n, text, target))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)

	if aborted || len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.isLeaf != b.isLeaf {
			return a.isLeaf
		}
		if math.Abs(a.score-b.score) > 5 {
			return a.score > b.score
		}
		return a.textLength < b.textLength
	})

	if completeWrapper {
		if len(candidates) < 2 {
			return nil, nil
		}
		return candidates[1].node, nil
	}
	return candidates[0].node, nil
}

func scoreCandidate(n *html.Node, text, target string) matchCandidate {
	trimmed := strings.TrimSpace(text)

	leaf := true
	for _, child := range htmlx.ElementChildren(n) {
		if strings.Contains(htmlx.Text(child), target) {
			leaf = false
			break
		}
	}

	var score float64
	switch {
	case leaf && trimmed == target:
		score = 100
	case leaf:
		score = float64(len(target)) / float64(len(trimmed)) * 100
	default:
		// Containers are penalized 2x relative to leaves.
		score = float64(len(target)) / float64(len(trimmed)) * 50
	}

	return matchCandidate{
		node:       n,
		score:      score,
		textLength: len(trimmed),
		isLeaf:     leaf,
	}
}
