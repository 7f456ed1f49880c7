package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// StructureHash hashes the accessibility-tree topology: role and child
// count per node, depth-first. Names and values are excluded so copy
// edits never change the hash.
func StructureHash(root *Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	var rec func(n *Node, depth int)
	rec = func(n *Node, depth int) {
		fmt.Fprintf(&b, "%d:%s:%d;", depth, n.Role, len(n.Children))
		for _, c := range n.Children {
			rec(c, depth+1)
		}
	}
	rec(root, 0)
	h := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", h[:8])
}

// SkeletonHash hashes the tag structure of raw markup, stripping all text
// and attributes. Detects layout changes without reacting to content
// updates. Lowest-weight identity dimension.
func SkeletonHash(html []byte) string {
	skeleton := extractSkeleton(html)
	h := sha256.Sum256([]byte(skeleton))
	return fmt.Sprintf("%x", h[:8])
}

// extractSkeleton reduces markup to "depth:tag;" tuples.
func extractSkeleton(html []byte) string {
	var b strings.Builder
	var tagName strings.Builder
	inTag := false
	inAttr := false
	isClosing := false
	depth := 0

	for i := 0; i < len(html); i++ {
		ch := html[i]

		if ch == '<' {
			inTag = true
			inAttr = false
			isClosing = false
			tagName.Reset()
			if i+1 < len(html) && html[i+1] == '/' {
				isClosing = true
				i++
			}
			continue
		}
		if !inTag {
			continue
		}

		switch {
		case ch == '>':
			inTag = false
			name := strings.ToLower(tagName.String())
			if name == "" || name == "!" || name[0] == '?' {
				continue
			}
			if isVoidTag(name) {
				fmt.Fprintf(&b, "%d:%s;", depth, name)
				continue
			}
			if isClosing {
				if depth > 0 {
					depth--
				}
				continue
			}
			fmt.Fprintf(&b, "%d:%s;", depth, name)
			depth++
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			inAttr = true
		default:
			if !inAttr {
				tagName.WriteByte(ch)
			}
		}
	}
	return b.String()
}

func isVoidTag(name string) bool {
	switch name {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
