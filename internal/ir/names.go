package ir

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Names reserved for the inputs of field expressions, and CUE keywords
// that cannot be referenced as fields.
var reservedFieldNames = map[string]bool{
	"identifier": true,
	"time":       true,
	"out":        true,

	"true": true, "false": true, "null": true,
	"if": true, "for": true, "in": true, "let": true,
	"import": true, "package": true,
	"div": true, "mod": true, "quo": true, "rem": true,
}

// NormalizeName trims and NFC-normalises a group or field name so that
// visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateFieldName checks that a field name can be referenced from a field
// expression: a letter or underscore followed by letters, digits or
// underscores, and not one of the reserved input names.
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name is empty")
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("field name %q: invalid character %q", name, r)
	}
	if reservedFieldNames[name] {
		return fmt.Errorf("field name %q is reserved", name)
	}
	return nil
}
