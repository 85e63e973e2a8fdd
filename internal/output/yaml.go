package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter re-encodes the JSON payload as block-style YAML. Decoding
// into a yaml.Node keeps the key order of the JSON document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(payload []byte, w io.Writer) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("decode result document: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles the JSON source left on
// every node. The encoder still quotes strings that would otherwise read
// back as another type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
