package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/dgallion1/wordspira/internal/document"
)

type styleInfo struct {
	name   string
	custom bool
}

// styleTable maps a paragraph styleId to its definition in word/styles.xml.
type styleTable map[string]styleInfo

func parseStyles(data []byte) (styleTable, error) {
	t := make(styleTable)
	if len(data) == 0 {
		return t, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	for _, el := range doc.FindElements("//w:style") {
		if typ := el.SelectAttrValue("w:type", "paragraph"); typ != "paragraph" {
			continue
		}
		id := el.SelectAttrValue("w:styleId", "")
		if id == "" {
			continue
		}
		info := styleInfo{name: id}
		if n := el.SelectElement("w:name"); n != nil {
			info.name = n.SelectAttrValue("w:val", id)
		}
		custom := el.SelectAttrValue("w:customStyle", "")
		info.custom = custom == "1" || custom == "true"
		t[id] = info
	}
	return t, nil
}

// resolve returns the built-in and custom style names of styleID. Custom
// styles report the Other sentinel as their built-in name.
func (t styleTable) resolve(styleID string) (builtIn, custom string) {
	if styleID == "" {
		return document.StyleNormal, ""
	}
	info, ok := t[styleID]
	if !ok {
		return styleID, ""
	}
	if info.custom {
		return document.StyleOther, info.name
	}
	return compactStyleName(info.name), ""
}

// compactStyleName turns Word's style name into its built-in enum form:
// "heading 1" becomes "Heading1", "List Paragraph" becomes "ListParagraph".
func compactStyleName(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		r, size := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(word[size:])
	}
	return sb.String()
}

// numbering resolves list formats from word/numbering.xml.
type numbering struct {
	nums     map[string]string         // numId -> abstractNumId
	abstract map[string]map[int]string // abstractNumId -> ilvl -> numFmt
}

func parseNumbering(data []byte) (*numbering, error) {
	n := &numbering{
		nums:     make(map[string]string),
		abstract: make(map[string]map[int]string),
	}
	if len(data) == 0 {
		return n, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	for _, el := range doc.FindElements("//w:abstractNum") {
		id := el.SelectAttrValue("w:abstractNumId", "")
		levels := make(map[int]string)
		for _, lvl := range el.SelectElements("w:lvl") {
			ilvl, err := strconv.Atoi(lvl.SelectAttrValue("w:ilvl", ""))
			if err != nil {
				continue
			}
			if f := lvl.SelectElement("w:numFmt"); f != nil {
				levels[ilvl] = f.SelectAttrValue("w:val", "")
			}
		}
		n.abstract[id] = levels
	}
	for _, el := range doc.FindElements("//w:num") {
		id := el.SelectAttrValue("w:numId", "")
		if a := el.SelectElement("w:abstractNumId"); a != nil {
			n.nums[id] = a.SelectAttrValue("w:val", "")
		}
	}
	return n, nil
}

// list returns the list membership of a paragraph numbered with numID at
// level ilvl. Unknown definitions are treated as bullets. numId 0 removes
// numbering.
func (n *numbering) list(numID, ilvl string) *document.ListInfo {
	if numID == "" || numID == "0" {
		return nil
	}
	level, _ := strconv.Atoi(ilvl)
	info := &document.ListInfo{Level: level}
	if n == nil {
		return info
	}
	switch n.abstract[n.nums[numID]][level] {
	case "", "bullet", "none":
	default:
		info.Ordered = true
	}
	return info
}
