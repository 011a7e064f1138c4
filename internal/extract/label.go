package extract

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/kalaam-crawler/internal/tree"
)

// labelMatcher pulls the value written after a fixed label such as
// "Nohakhan:" out of the nearest element that mentions it.
type labelMatcher struct {
	label   string
	pattern *regexp.Regexp
}

func newLabelMatcher(label string) labelMatcher {
	return labelMatcher{
		label:   label,
		pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[ \t]*(.+)`),
	}
}

// inlineTags flow within a line. Any other element, and <br>, starts a new
// one.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "big": true, "em": true, "font": true,
	"i": true, "label": true, "mark": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

// extract reads the value after the label on the same rendered line of the
// deepest element that mentions it. When that element is an inline wrapper
// holding only the label, as in <b>Nohakhan:</b> Name, the value is the rest
// of the line in its parent.
func (m labelMatcher) extract(root *tree.Node) (string, bool) {
	if root == nil || strings.TrimSpace(m.label) == "" {
		return "", false
	}
	node := tree.Nearest(root, func(n *tree.Node) bool {
		return strings.Contains(n.StringValue(), m.label)
	})
	if node == nil {
		return "", false
	}
	if value, ok := m.capture(renderLines(node)); ok {
		return value, true
	}
	if !inlineTags[node.Tag] {
		return "", false
	}
	parent := tree.Find(root, func(n *tree.Node) bool {
		return childIndex(n, node) >= 0
	})
	if parent == nil {
		return "", false
	}
	rest := renderLines(parent.Children[childIndex(parent, node)+1:]...)
	line, _, _ := strings.Cut(rest, "\n")
	value := strings.Join(strings.Fields(line), " ")
	return value, value != ""
}

func (m labelMatcher) capture(text string) (string, bool) {
	match := m.pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	value := strings.Join(strings.Fields(match[1]), " ")
	return value, value != ""
}

func childIndex(parent, child *tree.Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// renderLines lays nodes out as text the way a browser breaks lines: source
// whitespace collapses to a space, while <br> and block elements end the line.
func renderLines(nodes ...*tree.Node) string {
	var b strings.Builder
	var walk func(n *tree.Node)
	walk = func(n *tree.Node) {
		if n == nil {
			return
		}
		if n.Kind == tree.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text == "" {
				if n.Data != "" {
					b.WriteByte(' ')
				}
				return
			}
			if strings.TrimLeft(n.Data, " \t\r\n\f") != n.Data {
				b.WriteByte(' ')
			}
			b.WriteString(text)
			if strings.TrimRight(n.Data, " \t\r\n\f") != n.Data {
				b.WriteByte(' ')
			}
			return
		}
		block := !inlineTags[n.Tag]
		if block {
			b.WriteByte('\n')
		}
		for _, c := range n.Children {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

// ExtractLabel returns the text following label on the same line inside the
// most specific element whose text contains it. The boolean is false when the
// label does not occur or nothing follows it before the line ends.
func ExtractLabel(root *tree.Node, label string) (string, bool) {
	return newLabelMatcher(label).extract(root)
}
