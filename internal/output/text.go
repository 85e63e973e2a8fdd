package output

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTextItems is how many entries of each list the text summary shows
const DefaultTextItems = 5

// TextFormatter prints a short human-readable summary: top-level scalars,
// list sizes with their first entries, and one level of nested objects.
type TextFormatter struct {
	MaxItems int
}

func (f *TextFormatter) Format(payload []byte, w io.Writer) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("decode result document: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		_, err := fmt.Fprintln(w, inline(root))
		return err
	}

	var b strings.Builder
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch value.Kind {
		case yaml.SequenceNode:
			fmt.Fprintf(&b, "%s (%d)\n", key, len(value.Content))
			for j, item := range value.Content {
				if f.MaxItems > 0 && j == f.MaxItems {
					fmt.Fprintf(&b, "  ... %d more\n", len(value.Content)-j)
					break
				}
				fmt.Fprintf(&b, "  - %s\n", inline(item))
			}
		case yaml.MappingNode:
			fmt.Fprintf(&b, "%s:\n", key)
			for j := 0; j+1 < len(value.Content); j += 2 {
				fmt.Fprintf(&b, "  %s: %s\n", value.Content[j].Value, inline(value.Content[j+1]))
			}
		default:
			fmt.Fprintf(&b, "%s: %s\n", key, inline(value))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// inline renders a node on one line
func inline(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "-"
		}
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, c := range n.Content {
			parts[i] = inline(c)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case yaml.MappingNode:
		parts := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			parts = append(parts, n.Content[i].Value+"="+inline(n.Content[i+1]))
		}
		return strings.Join(parts, " ")
	case yaml.AliasNode:
		return inline(n.Alias)
	default:
		return ""
	}
}
