package jobs

import (
	"io"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Iframe:   true,
}

var headingLevel = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Ul: true, atom.Ol: true, atom.Table: true,
	atom.Tr: true, atom.Br: true, atom.Blockquote: true, atom.Pre: true,
	atom.Header: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
}

// ExtractText renders an HTML page as Markdown-flavoured plain text:
// headings become "#" lines, list items "- " lines, and scripts, styles and
// navigation are dropped.
func ExtractText(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return MsgNotSimplified
	}

	root := doc
	if body := findElement(doc, atom.Body); body != nil {
		root = body
	}

	var lines []string
	var current strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(current.String()), " "); s != "" {
			lines = append(lines, s)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if level, ok := headingLevel[n.DataAtom]; ok {
				flush()
				current.WriteString(strings.Repeat("#", level) + " ")
			} else if n.DataAtom == atom.Li {
				flush()
				current.WriteString("- ")
			} else if blocks[n.DataAtom] {
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (blocks[n.DataAtom] || n.DataAtom == atom.Li || headingLevel[n.DataAtom] > 0) {
			flush()
		}
	}
	walk(root)
	flush()

	lines = slices.DeleteFunc(lines, func(s string) bool {
		return strings.Trim(s, "#- ") == ""
	})
	if len(lines) == 0 {
		return MsgNotSimplified
	}
	return strings.Join(lines, "\n\n")
}

// ParseResultLinks extracts the targets of result anchors
// (<a class="result__a">) from an HTML search results page. Redirect links of
// the form /l/?uddg=<target> are unwrapped.
func ParseResultLinks(r io.Reader, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(links) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			if href := resultTarget(attr(n, "href")); strings.Contains(href, "http") {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func resultTarget(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}
