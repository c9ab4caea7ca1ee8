// Package htmltext converts Help Scout thread bodies into plain text.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Tr: true, atom.Table: true,
	atom.Blockquote: true, atom.Pre: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var inlineSpace = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

var skipElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Head: true, atom.Title: true,
}

// ToText strips markup from s, resolves entities and normalizes whitespace.
// Block level elements become line breaks, runs of blanks inside a line become
// one space, and empty lines are removed. Input that fails to parse is returned
// with whitespace normalized only.
func ToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return normalize(s)
	}

	var b strings.Builder
	for _, n := range nodes {
		walk(&b, n)
	}
	return normalize(b.String())
}

func walk(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(inlineSpace.Replace(n.Data))
		return
	case html.ElementNode:
		if skipElements[n.DataAtom] {
			return
		}
		if blockElements[n.DataAtom] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c)
	}
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
