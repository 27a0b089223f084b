package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"path"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/wordspira/internal/document"
)

// DOCXExtractor handles .docx files.
type DOCXExtractor struct{}

func (p *DOCXExtractor) Extract(r io.Reader, filename string, rng document.Range) (*document.Selection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	size := int64(len(data))

	doc, err := docx.Parse(bytes.NewReader(data), size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	// go-docx does not surface style or numbering definitions.
	zr, err := zip.NewReader(bytes.NewReader(data), size)
	if err != nil {
		return nil, fmt.Errorf("open docx package: %w", err)
	}
	styles, err := parseStyles(readPart(zr, "word/styles.xml"))
	if err != nil {
		return nil, fmt.Errorf("parse styles: %w", err)
	}
	numbering, err := parseNumbering(readPart(zr, "word/numbering.xml"))
	if err != nil {
		return nil, fmt.Errorf("parse numbering: %w", err)
	}

	w := &docxWalker{doc: doc, styles: styles, numbering: numbering}
	var blocks []block
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			blocks = append(blocks, w.paragraph(it))
		case *docx.Table:
			blocks = append(blocks, w.table(it))
		}
	}
	return assemble(blocks, rng)
}

func readPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}

type docxWalker struct {
	doc       *docx.Docx
	styles    styleTable
	numbering *numbering
	seq       int
}

func (w *docxWalker) paragraph(para *docx.Paragraph) block {
	line, imgs := w.line(para)
	return block{
		lines:  []document.LineSegment{line},
		counts: []int{len(imgs)},
		images: imgs,
	}
}

// table emits one line per cell, terminated by a tab, and the cell grid.
func (w *docxWalker) table(tbl *docx.Table) block {
	var b block
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var texts []string
			var htmls []string
			var imgs []document.ImageRef
			seg := document.LineSegment{Style: document.StyleNormal, BuiltInStyle: document.StyleNormal}
			for i, para := range cell.Paragraphs {
				l, pi := w.line(para)
				if i == 0 {
					seg = l
				}
				if l.Text != "" {
					texts = append(texts, l.Text)
					htmls = append(htmls, l.HTML)
				}
				imgs = append(imgs, pi...)
			}
			text := strings.Join(texts, "\n")
			seg.Text = text + "\t"
			seg.HTML = strings.Join(htmls, "<br>")
			seg.List = nil
			seg.InTable = true
			b.lines = append(b.lines, seg)
			b.counts = append(b.counts, len(imgs))
			b.images = append(b.images, imgs...)
			cells = append(cells, text)
		}
		b.grid = append(b.grid, cells)
	}
	if b.grid == nil {
		b.grid = document.TableGrid{}
	}
	return b
}

func (w *docxWalker) line(para *docx.Paragraph) (document.LineSegment, []document.ImageRef) {
	var styleID string
	var list *document.ListInfo
	if pp := para.Properties; pp != nil {
		if pp.Style != nil {
			styleID = pp.Style.Val
		}
		if np := pp.NumProperties; np != nil && np.NumID != nil {
			ilvl := ""
			if np.Ilvl != nil {
				ilvl = np.Ilvl.Val
			}
			list = w.numbering.list(np.NumID.Val, ilvl)
		}
	}
	builtIn, custom := w.styles.resolve(styleID)
	style, isCustom := document.ResolveStyle(builtIn, custom)

	var text, markup strings.Builder
	var imgs []document.ImageRef
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			imgs = append(imgs, w.run(c, &text, &markup)...)
		case *docx.Hyperlink:
			imgs = append(imgs, w.run(&c.Run, &text, &markup)...)
		}
	}
	return document.LineSegment{
		Text:          strings.TrimSpace(text.String()),
		Style:         style,
		BuiltInStyle:  builtIn,
		CustomStyle:   custom,
		IsCustomStyle: isCustom,
		HTML:          strings.TrimSpace(markup.String()),
		List:          list,
	}, imgs
}

// run appends the run's text and inline HTML and returns its inline images.
func (w *docxWalker) run(run *docx.Run, text, markup *strings.Builder) []document.ImageRef {
	var raw strings.Builder
	var imgs []document.ImageRef
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			raw.WriteString(c.Text)
		case *docx.Tab:
			raw.WriteString("\t")
		case *docx.BarterRabbet:
			raw.WriteString("\n")
		case *docx.Drawing:
			if img, ok := w.image(c); ok {
				imgs = append(imgs, img)
			}
		}
	}
	s := raw.String()
	if s == "" {
		return imgs
	}
	text.WriteString(s)

	open, closing := runTags(run.RunProperties)
	markup.WriteString(open)
	markup.WriteString(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
	markup.WriteString(closing)
	return imgs
}

func runTags(rp *docx.RunProperties) (open, closing string) {
	if rp == nil {
		return "", ""
	}
	var tags []string
	if rp.Bold != nil {
		tags = append(tags, "strong")
	}
	if rp.Italic != nil {
		tags = append(tags, "em")
	}
	if rp.Underline != nil && rp.Underline.Val != "none" {
		tags = append(tags, "u")
	}
	for i, t := range tags {
		open += "<" + t + ">"
		closing += "</" + tags[len(tags)-1-i] + ">"
	}
	return open, closing
}

// image resolves an inline drawing to its media part. Floating (anchored)
// drawings are not inline pictures and are skipped.
func (w *docxWalker) image(d *docx.Drawing) (document.ImageRef, bool) {
	if d.Inline == nil || d.Inline.Graphic == nil || d.Inline.Graphic.GraphicData == nil {
		return document.ImageRef{}, false
	}
	pic := d.Inline.Graphic.GraphicData.Pic
	if pic == nil || pic.BlipFill == nil || pic.BlipFill.Blip.Embed == "" {
		return document.ImageRef{}, false
	}
	target, err := w.doc.ReferTarget(pic.BlipFill.Blip.Embed)
	if err != nil {
		return document.ImageRef{}, false
	}
	m := w.doc.Media(path.Base(target))
	if m == nil {
		return document.ImageRef{}, false
	}
	img := newImageRef(m.Data, w.seq)
	w.seq++
	return img, true
}
