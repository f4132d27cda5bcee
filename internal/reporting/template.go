package reporting

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/lauolme/registro-app/internal/ir"
)

// Placeholders is the fixed slot set every dictamen template must use, each exactly once.
var Placeholders = []string{"hechos", "cuestiones", "analisis", "conclusion", "riesgos", "pasos"}

// TemplateError reports a template whose placeholders do not match the slot set.
// Offset is the byte offset in the template, or -1 when the error is not positional.
type TemplateError struct {
	Placeholder string
	Offset      int
	Reason      string
}

func (e *TemplateError) Error() string {
	msg := "template: " + e.Reason
	if e.Placeholder != "" {
		msg += fmt.Sprintf(" {%s}", e.Placeholder)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return msg
}

// segment is either literal text or a slot reference.
type segment struct {
	text string
	slot string
}

// parseTemplate splits tpl into literal and slot segments. "{{" and "}}" are
// literal braces.
func parseTemplate(tpl string) ([]segment, error) {
	known := make(map[string]bool, len(Placeholders))
	for _, p := range Placeholders {
		known[p] = true
	}
	seen := make(map[string]bool, len(Placeholders))

	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tpl); {
		c := tpl[i]
		switch {
		case c == '{' && i+1 < len(tpl) && tpl[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tpl) && tpl[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '}':
			return nil, &TemplateError{Offset: i, Reason: "single '}' encountered"}
		case c == '{':
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return nil, &TemplateError{Offset: i, Reason: "unterminated placeholder"}
			}
			name := tpl[i+1 : i+1+end]
			switch {
			case name == "":
				return nil, &TemplateError{Offset: i, Reason: "empty placeholder"}
			case !known[name]:
				return nil, &TemplateError{Placeholder: name, Offset: i, Reason: "unknown placeholder"}
			case seen[name]:
				return nil, &TemplateError{Placeholder: name, Offset: i, Reason: "repeated placeholder"}
			}
			seen[name] = true
			flush()
			segs = append(segs, segment{slot: name})
			i += end + 2
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	for _, p := range Placeholders {
		if !seen[p] {
			return nil, &TemplateError{Placeholder: p, Offset: -1, Reason: "missing placeholder"}
		}
	}
	return segs, nil
}

// ValidateTemplate checks tpl against the slot set without rendering.
func ValidateTemplate(tpl string) error {
	_, err := parseTemplate(tpl)
	return err
}

// ParseTemplate validates template source read from source (a path or "").
func ParseTemplate(source string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &ir.LoadError{Source: source, Index: -1, Reason: "template is not valid UTF-8"}
	}
	tpl := string(b)
	if err := ValidateTemplate(tpl); err != nil {
		return "", &ir.LoadError{Source: source, Index: -1, Reason: "invalid template", Err: err}
	}
	return tpl, nil
}

// LoadTemplate reads and validates the dictamen template at path.
func LoadTemplate(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &ir.LoadError{Source: path, Index: -1, Reason: "read template", Err: err}
	}
	return ParseTemplate(path, b)
}
