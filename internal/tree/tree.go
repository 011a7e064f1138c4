// Package tree is a parser-independent view of an HTML document. Extractors
// query it through Nearest and the text helpers so they never depend on a
// specific parsing engine.
package tree

import "strings"

// Kind distinguishes element nodes from text nodes.
type Kind int

// Node kinds.
const (
	ElementNode Kind = iota
	TextNode
)

// Node is one element or text node.
type Node struct {
	Kind     Kind
	Tag      string
	Attrs    map[string]string
	Data     string
	Children []*Node
}

// Element builds an element node.
func Element(tag string, attrs map[string]string, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs, Children: children}
}

// Text builds a text node.
func Text(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// Attr returns the named attribute of an element.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) walkText(fn func(string)) {
	if n == nil {
		return
	}
	if n.Kind == TextNode {
		fn(n.Data)
		return
	}
	for _, c := range n.Children {
		c.walkText(fn)
	}
}

// Flatten trims each descendant text node, drops the empty ones and joins the
// rest with newlines.
func (n *Node) Flatten() string {
	var parts []string
	n.walkText(func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, "\n")
}

// StringValue concatenates all descendant text and collapses whitespace runs to
// a single space, like XPath normalize-space(.).
func (n *Node) StringValue() string {
	var b strings.Builder
	n.walkText(func(s string) { b.WriteString(s) })
	return strings.Join(strings.Fields(b.String()), " ")
}

// DirectText concatenates the text children of n, ignoring nested elements.
func (n *Node) DirectText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Nearest returns the first element, in document order, that satisfies pred
// and has no descendant element satisfying it. It returns nil when no element
// qualifies.
func Nearest(root *Node, pred func(*Node) bool) *Node {
	if root == nil || root.Kind != ElementNode {
		return nil
	}
	for _, c := range root.Children {
		if found := Nearest(c, pred); found != nil {
			return found
		}
	}
	if pred(root) {
		return root
	}
	return nil
}

// Find returns the first element in document order satisfying pred.
func Find(root *Node, pred func(*Node) bool) *Node {
	if root == nil || root.Kind != ElementNode {
		return nil
	}
	if pred(root) {
		return root
	}
	for _, c := range root.Children {
		if found := Find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// ByTag matches elements with the given tag name.
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool { return n.Tag == tag }
}

// ByID matches elements whose id attribute equals id.
func ByID(id string) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	}
}
