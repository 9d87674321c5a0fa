package timing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextExtractor pulls trimmed text out of an HTML fragment.
// An empty selector selects the whole fragment. The boolean reports whether
// the selector matched anything.
type TextExtractor interface {
	Extract(fragment, selector string) (string, bool)
}

// HTMLExtractor is a TextExtractor backed by goquery. Fragments are parsed
// the way a browser parses innerHTML, in the context of the element that
// may hold their first tag: table rows and cells keep their markup.
type HTMLExtractor struct{}

// NewHTMLExtractor returns an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract implements TextExtractor.
func (HTMLExtractor) Extract(fragment, selector string) (string, bool) {
	root := fragmentContext(fragment)
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return "", false
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	sel := goquery.NewDocumentFromNode(root).Selection
	if selector != "" {
		sel = sel.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
	}
	return strings.TrimSpace(sel.Text()), true
}

// firstTag matches the name of the fragment's leading start tag.
var firstTag = regexp.MustCompile(`^\s*<([a-zA-Z][a-zA-Z0-9]*)`)

// fragmentContext returns the element a fragment is parsed into. Outside
// a table the HTML parser drops <td> and <tr> start tags.
func fragmentContext(fragment string) *html.Node {
	a := atom.Div
	if m := firstTag.FindStringSubmatch(fragment); m != nil {
		switch atom.Lookup([]byte(strings.ToLower(m[1]))) {
		case atom.Td, atom.Th:
			a = atom.Tr
		case atom.Tr:
			a = atom.Tbody
		case atom.Tbody, atom.Thead, atom.Tfoot, atom.Caption, atom.Colgroup:
			a = atom.Table
		case atom.Col:
			a = atom.Colgroup
		}
	}
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}
