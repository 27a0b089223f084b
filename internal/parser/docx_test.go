package parser

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/wordspira/internal/document"
)

func buildDocx(t *testing.T, build func(d *docx.Docx)) []byte {
	t.Helper()
	d := docx.New().WithDefaultTheme()
	build(d)
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXExtractor_LinesAndStyles(t *testing.T) {
	data := buildDocx(t, func(d *docx.Docx) {
		d.AddParagraph().Style("Heading1").AddText("Req A")
		d.AddParagraph().AddText("desc text")
		d.AddParagraph().Style("Heading2").AddText("Req B")
	})

	sel, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(sel.Lines))
	}
	want := []struct {
		text  string
		style string
	}{
		{"Req A", "Heading1"},
		{"desc text", "Normal"},
		{"Req B", "Heading2"},
	}
	for i, w := range want {
		l := sel.Lines[i]
		if l.Text != w.text {
			t.Errorf("line %d: expected text %q, got %q", i, w.text, l.Text)
		}
		if l.Style != w.style {
			t.Errorf("line %d: expected style %q, got %q", i, w.style, l.Style)
		}
		if l.IsCustomStyle {
			t.Errorf("line %d: expected built-in style", i)
		}
	}
}

func TestDOCXExtractor_Range(t *testing.T) {
	data := buildDocx(t, func(d *docx.Docx) {
		d.AddParagraph().AddText("zero")
		d.AddParagraph().AddText("one")
		d.AddParagraph().AddText("two")
	})

	sel, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{From: 1, To: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Lines) != 1 || sel.Lines[0].Text != "one" {
		t.Errorf("expected only %q, got %+v", "one", sel.Lines)
	}
}

func TestDOCXExtractor_RangeOutsideBody(t *testing.T) {
	data := buildDocx(t, func(d *docx.Docx) {
		d.AddParagraph().AddText("zero")
	})
	_, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{From: 5, To: 9})
	if err != ErrEmptyDocument {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestDOCXExtractor_Table(t *testing.T) {
	data := buildDocx(t, func(d *docx.Docx) {
		d.AddParagraph().Style("Heading2").AddText("Login works")
		tbl := d.AddTable(2, 2, 0, nil)
		tbl.TableRows[0].TableCells[0].AddParagraph().AddText("Step")
		tbl.TableRows[0].TableCells[1].AddParagraph().AddText("Expected")
		tbl.TableRows[1].TableCells[0].AddParagraph().AddText("Open page")
		tbl.TableRows[1].TableCells[1].AddParagraph().AddText("Page shown")
	})

	sel, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(sel.Tables))
	}
	grid := sel.Tables[0]
	if grid.Cell(1, 1) != "Page shown" {
		t.Errorf("expected %q, got %q", "Page shown", grid.Cell(1, 1))
	}
	if len(sel.Lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(sel.Lines))
	}
	first := sel.Lines[1]
	if first.Text != "Step\t" || !first.InTable {
		t.Errorf("expected table line %q, got %q (inTable=%v)", "Step\t", first.Text, first.InTable)
	}
}

func TestDOCXExtractor_RunMarkup(t *testing.T) {
	data := buildDocx(t, func(d *docx.Docx) {
		p := d.AddParagraph()
		p.AddText("plain ")
		p.AddText("bold").Bold()
		p.AddText(" and ")
		p.AddText("a<b").Italic()
	})

	sel, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sel.Lines[0].HTML
	want := "plain <strong>bold</strong> and <em>a&lt;b</em>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if sel.Lines[0].Text != "plain bold and a<b" {
		t.Errorf("unexpected text %q", sel.Lines[0].Text)
	}
}

func TestDOCXExtractor_InlineImage(t *testing.T) {
	pic := testPNG(t)
	data := buildDocx(t, func(d *docx.Docx) {
		d.AddParagraph().Style("Heading1").AddText("Req A")
		p := d.AddParagraph()
		p.AddText("see figure")
		if _, err := p.AddInlineDrawing(pic); err != nil {
			t.Fatalf("add drawing: %v", err)
		}
	})

	sel, err := (&DOCXExtractor{}).Extract(bytes.NewReader(data), "doc.docx", document.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(sel.Images))
	}
	img := sel.Images[0]
	if img.LineIndex != 1 {
		t.Errorf("expected image on line 1, got %d", img.LineIndex)
	}
	if img.Filename != "inline0.png" {
		t.Errorf("expected %q, got %q", "inline0.png", img.Filename)
	}
	if img.Base64 == "" {
		t.Error("expected base64 payload")
	}
	if len(sel.Lines[1].Images) != 1 {
		t.Errorf("expected image attached to line 1, got %d", len(sel.Lines[1].Images))
	}
}

func TestDOCXExtractor_InvalidFile(t *testing.T) {
	_, err := (&DOCXExtractor{}).Extract(strings.NewReader("not a zip"), "doc.docx", document.Range{})
	if err == nil {
		t.Error("expected error for invalid docx")
	}
}

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
  <w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>
  <w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/></w:style>
  <w:style w:type="paragraph" w:customStyle="1" w:styleId="AcmeReq"><w:name w:val="Acme Requirement"/></w:style>
  <w:style w:type="character" w:styleId="Strong"><w:name w:val="Strong"/></w:style>
</w:styles>`

func TestStyleTable_Resolve(t *testing.T) {
	table, err := parseStyles([]byte(stylesXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		id      string
		builtIn string
		custom  string
	}{
		{"", "Normal", ""},
		{"Normal", "Normal", ""},
		{"Heading1", "Heading1", ""},
		{"ListParagraph", "ListParagraph", ""},
		{"AcmeReq", "Other", "Acme Requirement"},
		{"Missing", "Missing", ""},
		{"Strong", "Strong", ""},
	}
	for _, tt := range tests {
		b, c := table.resolve(tt.id)
		if b != tt.builtIn || c != tt.custom {
			t.Errorf("resolve(%q): expected (%q, %q), got (%q, %q)", tt.id, tt.builtIn, tt.custom, b, c)
		}
	}
	style, custom := document.ResolveStyle(table.resolve("AcmeReq"))
	if style != "Acme Requirement" || !custom {
		t.Errorf("expected custom style, got %q (%v)", style, custom)
	}
}

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:abstractNum w:abstractNumId="0">
    <w:lvl w:ilvl="0"><w:numFmt w:val="bullet"/></w:lvl>
  </w:abstractNum>
  <w:abstractNum w:abstractNumId="1">
    <w:lvl w:ilvl="0"><w:numFmt w:val="decimal"/></w:lvl>
    <w:lvl w:ilvl="1"><w:numFmt w:val="bullet"/></w:lvl>
  </w:abstractNum>
  <w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
  <w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num>
</w:numbering>`

func TestNumbering_List(t *testing.T) {
	n, err := parseNumbering([]byte(numberingXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l := n.list("1", "0"); l == nil || l.Ordered {
		t.Errorf("expected bullet list, got %+v", l)
	}
	if l := n.list("2", "0"); l == nil || !l.Ordered {
		t.Errorf("expected ordered list, got %+v", l)
	}
	if l := n.list("2", "1"); l == nil || l.Ordered || l.Level != 1 {
		t.Errorf("expected nested bullet, got %+v", l)
	}
	if l := n.list("0", "0"); l != nil {
		t.Errorf("expected numId 0 to clear numbering, got %+v", l)
	}
}

func TestCompactStyleName(t *testing.T) {
	tests := map[string]string{
		"heading 1":      "Heading1",
		"List Paragraph": "ListParagraph",
		"toc 2":          "Toc2",
		"Title":          "Title",
	}
	for in, want := range tests {
		if got := compactStyleName(in); got != want {
			t.Errorf("compactStyleName(%q): expected %q, got %q", in, want, got)
		}
	}
}
