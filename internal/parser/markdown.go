package parser

import (
	"bytes"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/wordspira/internal/document"
)

// Paragraph styles assigned to Markdown blocks.
const (
	styleListParagraph = "ListParagraph"
	styleQuote         = "Quote"
)

// MarkdownExtractor handles Markdown files using goldmark. Headings map to
// HeadingN styles, so Markdown documents work with the default style map.
type MarkdownExtractor struct{}

func (p *MarkdownExtractor) Extract(r io.Reader, filename string, rng document.Range) (*document.Selection, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		b := markdownBlock(n, src)
		blocks = append(blocks, b)
	}
	return assemble(blocks, rng)
}

func markdownBlock(n ast.Node, src []byte) block {
	var b block
	add := func(seg document.LineSegment) {
		b.lines = append(b.lines, seg)
		b.counts = append(b.counts, 0)
	}
	switch node := n.(type) {
	case *ast.Heading:
		style := "Heading" + strconv.Itoa(node.Level)
		add(markdownLine(node, src, style, nil))
	case *ast.List:
		markdownList(node, src, 0, add)
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			add(markdownLine(c, src, styleQuote, nil))
		}
	case *east.Table:
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				seg := markdownLine(cell, src, document.StyleNormal, nil)
				cells = append(cells, seg.Text)
				seg.Text += "\t"
				seg.InTable = true
				add(seg)
			}
			b.grid = append(b.grid, cells)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		seg := document.LineSegment{
			Text:         strings.TrimSpace(string(blockLines(n, src))),
			Style:        document.StyleNormal,
			BuiltInStyle: document.StyleNormal,
		}
		seg.HTML = "<code>" + html.EscapeString(seg.Text) + "</code>"
		add(seg)
	case *ast.ThematicBreak, *ast.HTMLBlock:
		// Not paragraph content.
	default:
		add(markdownLine(n, src, document.StyleNormal, nil))
	}
	return b
}

func markdownList(list *ast.List, src []byte, level int, add func(document.LineSegment)) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				markdownList(sub, src, level+1, add)
				continue
			}
			info := &document.ListInfo{Ordered: list.IsOrdered(), Level: level}
			add(markdownLine(c, src, styleListParagraph, info))
		}
	}
}

func markdownLine(n ast.Node, src []byte, style string, list *document.ListInfo) document.LineSegment {
	var plain, markup bytes.Buffer
	renderInline(n, src, &plain, &markup)
	return document.LineSegment{
		Text:         strings.TrimSpace(plain.String()),
		Style:        style,
		BuiltInStyle: style,
		HTML:         strings.TrimSpace(markup.String()),
		List:         list,
	}
}

// renderInline writes the plain text and inline HTML of n's children.
func renderInline(n ast.Node, src []byte, plain, markup *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			v := node.Value(src)
			plain.Write(v)
			markup.WriteString(html.EscapeString(string(v)))
			if node.HardLineBreak() {
				plain.WriteByte('\n')
				markup.WriteString("<br>")
			} else if node.SoftLineBreak() {
				plain.WriteByte(' ')
				markup.WriteByte(' ')
			}
		case *ast.String:
			plain.Write(node.Value)
			markup.WriteString(html.EscapeString(string(node.Value)))
		case *ast.Emphasis:
			tag := "em"
			if node.Level >= 2 {
				tag = "strong"
			}
			markup.WriteString("<" + tag + ">")
			renderInline(node, src, plain, markup)
			markup.WriteString("</" + tag + ">")
		case *ast.CodeSpan:
			markup.WriteString("<code>")
			renderInline(node, src, plain, markup)
			markup.WriteString("</code>")
		case *ast.AutoLink:
			label := node.Label(src)
			plain.Write(label)
			markup.WriteString(html.EscapeString(string(label)))
		case *ast.Image, *ast.RawHTML:
			// Markdown images reference external files and are not embedded.
		default:
			renderInline(c, src, plain, markup)
		}
	}
}

func blockLines(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.Bytes()
}
