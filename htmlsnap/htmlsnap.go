// Package htmlsnap builds accessibility-style snapshots out of raw
// HTML. It is the bridge between a page source (live browser or stored
// document) and the fingerprint extractor: markup goes in, a role tree
// comes out.
package htmlsnap

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/uimap/fingerprint"
)

// implicit landmark and widget roles per element, before any role
// attribute override.
var implicitRoles = map[atom.Atom]string{
	atom.Nav:      "navigation",
	atom.Main:     "main",
	atom.Header:   "banner",
	atom.Footer:   "contentinfo",
	atom.Aside:    "complementary",
	atom.Form:     "form",
	atom.Button:   "button",
	atom.A:        "link",
	atom.Select:   "combobox",
	atom.Textarea: "textbox",
	atom.H1:       "heading",
	atom.H2:       "heading",
	atom.H3:       "heading",
	atom.H4:       "heading",
	atom.H5:       "heading",
	atom.H6:       "heading",
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var inputRoles = map[string]string{
	"":         "textbox",
	"text":     "textbox",
	"email":    "textbox",
	"password": "textbox",
	"tel":      "textbox",
	"url":      "textbox",
	"number":   "spinbutton",
	"search":   "searchbox",
	"checkbox": "checkbox",
	"radio":    "radio",
	"button":   "button",
	"submit":   "button",
	"reset":    "button",
}

// Parse reads an HTML document and produces a snapshot rooted at a
// synthetic document node. Parsing never fails on sloppy markup; only
// a broken reader surfaces an error.
func Parse(r io.Reader, url string) (*fingerprint.Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("htmlsnap: read: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("htmlsnap: parse: %w", err)
	}

	snap := &fingerprint.Snapshot{
		URL:  url,
		HTML: raw,
		Root: &fingerprint.Node{Role: "document"},
	}
	snap.Title = documentTitle(doc)
	collect(doc, snap.Root)
	return snap, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(src, url string) (*fingerprint.Snapshot, error) {
	return Parse(strings.NewReader(src), url)
}

// collect walks the DOM and attaches role-bearing elements under the
// nearest role-bearing ancestor. Elements without a role are
// transparent: their children bubble up.
func collect(n *html.Node, parent *fingerprint.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			continue
		}
		if attr(c, "aria-hidden") == "true" || hasAttr(c, "hidden") {
			continue
		}

		node := roleNode(c)
		if node == nil {
			collect(c, parent)
			continue
		}
		parent.Children = append(parent.Children, node)
		collect(c, node)
	}
}

// roleNode maps an element to an accessibility node, or nil when the
// element carries no role.
func roleNode(n *html.Node) *fingerprint.Node {
	role := attr(n, "role")
	if role == "" {
		var ok bool
		role, ok = implicitRoles[n.DataAtom]
		switch {
		case n.DataAtom == atom.Input:
			role, ok = inputRoles[strings.ToLower(attr(n, "type"))]
			if !ok {
				return nil
			}
		case n.DataAtom == atom.A && attr(n, "href") == "":
			return nil
		case n.DataAtom == atom.Section:
			// Only labelled sections become regions.
			if attr(n, "aria-label") == "" {
				return nil
			}
			role = "region"
		case !ok:
			return nil
		}
	}

	node := &fingerprint.Node{
		Role: role,
		Name: accessibleName(n, role),
	}
	if lvl, ok := headingLevels[n.DataAtom]; ok && role == "heading" {
		node.Level = lvl
	}
	if v := attr(n, "aria-level"); v != "" && node.Level == 0 {
		fmt.Sscanf(v, "%d", &node.Level)
	}
	if role == "link" {
		node.Value = attr(n, "href")
	}

	node.Expanded = ariaBool(n, "aria-expanded")
	node.Selected = ariaBool(n, "aria-selected")
	node.Checked = ariaBool(n, "aria-checked")
	node.Pressed = ariaBool(n, "aria-pressed")
	if attr(n, "aria-current") != "" && attr(n, "aria-current") != "false" {
		t := true
		node.Current = &t
	}
	if hasAttr(n, "disabled") || attr(n, "aria-disabled") == "true" {
		t := true
		node.Disabled = &t
	}
	if n.DataAtom == atom.Input {
		typ := strings.ToLower(attr(n, "type"))
		if (typ == "checkbox" || typ == "radio") && hasAttr(n, "checked") && node.Checked == nil {
			t := true
			node.Checked = &t
		}
	}
	return node
}

// accessibleName approximates the accname algorithm: aria-label wins,
// then labels and placeholders for controls, then text content for
// widgets whose name is their label.
func accessibleName(n *html.Node, role string) string {
	if v := attr(n, "aria-label"); v != "" {
		return v
	}
	switch n.DataAtom {
	case atom.Input, atom.Textarea, atom.Select:
		if v := attr(n, "placeholder"); v != "" {
			return v
		}
		if v := attr(n, "name"); v != "" {
			return v
		}
		return ""
	}
	switch role {
	case "button", "link", "heading", "menuitem", "tab", "option":
		return textContent(n)
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func documentTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = strings.TrimSpace(textContent(n))
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func ariaBool(n *html.Node, key string) *bool {
	switch attr(n, key) {
	case "true":
		t := true
		return &t
	case "false":
		f := false
		return &f
	}
	return nil
}
