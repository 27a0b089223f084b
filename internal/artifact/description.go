package artifact

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/wordspira/internal/document"
)

const (
	attrList  = "data-list"
	attrLevel = "data-level"
)

// RenderDescription renders lines as an HTML description. List paragraphs
// are folded into nested ul/ol elements, and a description made of a single
// plain paragraph is returned as its bare content.
func RenderDescription(lines []document.LineSegment) string {
	var sb strings.Builder
	for _, l := range lines {
		content := l.HTML
		if content == "" {
			content = html.EscapeString(strings.TrimSpace(l.Text))
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		if l.List != nil {
			kind := "bullet"
			if l.List.Ordered {
				kind = "ordered"
			}
			sb.WriteString(`<p ` + attrList + `="` + kind + `" ` + attrLevel + `="` + strconv.Itoa(l.List.Level) + `">`)
		} else {
			sb.WriteString("<p>")
		}
		sb.WriteString(content)
		sb.WriteString("</p>")
	}
	if sb.Len() == 0 {
		return ""
	}
	out, err := filterForLists("<html><body>" + sb.String() + "</body></html>")
	if err != nil {
		return sb.String()
	}
	return out
}

type openList struct {
	node    *xhtml.Node
	ordered bool
	level   int
}

// filterForLists parses a body of paragraphs and rewrites marked list
// paragraphs into nested lists. The body markup itself is dropped.
func filterForLists(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	var out []*xhtml.Node
	var stack []openList
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kind, isList := s.Attr(attrList)
		if !isList {
			stack = stack[:0]
			out = append(out, node)
			return
		}
		ordered := kind == "ordered"
		level, _ := strconv.Atoi(s.AttrOr(attrLevel, "0"))

		for len(stack) > 0 && stack[len(stack)-1].level > level {
			stack = stack[:len(stack)-1]
		}
		if n := len(stack); n > 0 && stack[n-1].level == level && stack[n-1].ordered != ordered {
			stack = stack[:n-1]
		}
		if len(stack) == 0 || stack[len(stack)-1].level < level {
			list := newElement(atom.Ul)
			if ordered {
				list = newElement(atom.Ol)
			}
			if len(stack) == 0 {
				out = append(out, list)
			} else {
				parent := stack[len(stack)-1].node
				li := parent.LastChild
				if li == nil {
					li = newElement(atom.Li)
					parent.AppendChild(li)
				}
				li.AppendChild(list)
			}
			stack = append(stack, openList{node: list, ordered: ordered, level: level})
		}

		li := newElement(atom.Li)
		for c := node.FirstChild; c != nil; {
			next := c.NextSibling
			node.RemoveChild(c)
			li.AppendChild(c)
			c = next
		}
		stack[len(stack)-1].node.AppendChild(li)
	})

	if len(out) == 1 && out[0].DataAtom == atom.P && len(out[0].Attr) == 0 {
		return renderChildren(out[0])
	}
	var buf bytes.Buffer
	for _, n := range out {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		if err := xhtml.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func newElement(a atom.Atom) *xhtml.Node {
	return &xhtml.Node{Type: xhtml.ElementNode, DataAtom: a, Data: a.String()}
}

func renderChildren(n *xhtml.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := xhtml.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
