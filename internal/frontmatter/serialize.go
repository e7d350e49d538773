package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Render encodes fields (typically a struct, so key order follows the field
// order) as YAML frontmatter and prepends it to body.
func Render(fields any, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fields); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return Join(Document{Raw: buf.Bytes(), Body: body, Had: true, Newline: "\n"}), nil
}
