package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown source split into its YAML header and body.
type Document struct {
	Raw     []byte // YAML between the delimiters, nil when HadFrontmatter is false
	Body    []byte
	Had     bool
	Newline string // "\n" or "\r\n", detected from the first line ending
}

// Split separates `---` delimited YAML frontmatter from the Markdown body.
//
// A document that does not open with the delimiter has no frontmatter and its
// body is the full input.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Body: content, Newline: nl}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}
	rest := content[len(open):]

	// Empty block: the closing delimiter follows immediately.
	if bytes.HasPrefix(rest, open) {
		return Document{Raw: []byte{}, Body: rest[len(open):], Had: true, Newline: nl}, nil
	}

	closing := []byte(nl + "---")
	idx := bytes.Index(rest, closing)
	for idx >= 0 {
		after := rest[idx+len(closing):]
		if len(after) == 0 || bytes.HasPrefix(after, []byte(nl)) {
			body := after
			if len(after) > 0 {
				body = after[len(nl):]
			}
			return Document{Raw: rest[:idx+len(nl)], Body: body, Had: true, Newline: nl}, nil
		}
		// "---" followed by other text (e.g. "----") is content, keep scanning.
		next := bytes.Index(after, closing)
		if next < 0 {
			break
		}
		idx += len(closing) + next
	}
	return Document{}, ErrMissingClosingDelimiter
}

// Join reassembles a document. Without frontmatter the body is returned as-is.
func Join(doc Document) []byte {
	if !doc.Had {
		return doc.Body
	}
	nl := doc.Newline
	if nl == "" {
		nl = "\n"
	}
	var buf bytes.Buffer
	buf.Grow(len(doc.Raw) + len(doc.Body) + 2*(3+len(nl)))
	buf.WriteString("---" + nl)
	buf.Write(doc.Raw)
	buf.WriteString("---" + nl)
	buf.Write(doc.Body)
	return buf.Bytes()
}

// Decode unmarshals the raw YAML header into out. An empty header leaves out
// untouched.
func Decode(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return yaml.Unmarshal(raw, out)
}

// ParseYAML parses raw YAML frontmatter into a generic map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if err := Decode(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
