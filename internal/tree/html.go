package tree

import (
	"golang.org/x/net/html"
)

// FromHTML converts a golang.org/x/net/html node (for example the root of a
// goquery document) into a tree. Comments, doctypes and the contents of
// script and style elements are dropped.
func FromHTML(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case html.TextNode:
		return Text(n.Data)
	case html.DocumentNode:
		return &Node{Kind: ElementNode, Tag: "#document", Children: convertChildren(n)}
	case html.ElementNode:
		out := &Node{Kind: ElementNode, Tag: n.Data}
		if len(n.Attr) > 0 {
			out.Attrs = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				out.Attrs[a.Key] = a.Val
			}
		}
		if n.Data == "script" || n.Data == "style" {
			return out
		}
		out.Children = convertChildren(n)
		return out
	default:
		return nil
	}
}

func convertChildren(n *html.Node) []*Node {
	var children []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if converted := FromHTML(c); converted != nil {
			children = append(children, converted)
		}
	}
	return children
}
