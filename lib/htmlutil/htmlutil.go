package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText approximates a browser's innerText for static html: text nodes are
// concatenated, <br> becomes a newline and elements a browser never renders
// (<script>, <style>, <template>, the hidden attribute, inline display:none or
// visibility:hidden) are skipped. Elements hidden by stylesheet rules still count,
// no css is evaluated.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		switch node.Data {
		case "script", "style", "template":
			return
		case "br":
			buffer.WriteByte('\n')
			return
		}
		if isHidden(node) {
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func isHidden(node *html.Node) bool {
	for _, attr := range node.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ToLower(strings.ReplaceAll(attr.Val, " ", ""))
			for _, decl := range strings.Split(style, ";") {
				if decl == "display:none" || decl == "visibility:hidden" {
					return true
				}
			}
		}
	}
	return false
}

// CellText returns the rendered text of the first node in the selection, trimmed of
// leading and trailing whitespace.
func CellText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(GetText(sel.Get(0)))
}

// RowsText returns the trimmed text of every cell matching cellSelector in each row,
// preserving row and cell order. A row with no matching cells yields an empty slice.
func RowsText(rows *goquery.Selection, cellSelector string) [][]string {
	out := make([][]string, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(cellSelector)
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, CellText(cell))
		})
		out = append(out, texts)
	})
	return out
}
