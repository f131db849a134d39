// Package item implements item validation and CRUD against a collection's
// dynamic backing store, including change-history capture and media
// enrichment of file fields.
package item

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/notify"
)

// Stable notification codes for item validation failures.
const (
	CodeFieldRequired      = "FIELD_REQUIRED"
	CodeFieldNotString     = "FIELD_NOT_STRING"
	CodeFieldTooShort      = "FIELD_TOO_SHORT"
	CodeFieldTooLong       = "FIELD_TOO_LONG"
	CodePatternMismatch    = "FIELD_PATTERN_MISMATCH"
	CodePatternInvalid     = "FIELD_PATTERN_INVALID"
	CodeOptionUnknown      = "FIELD_OPTION_UNKNOWN"
	CodeNotNumeric         = "FIELD_NOT_NUMERIC"
	CodeDecimalNotAllowed  = "FIELD_DECIMAL_NOT_ALLOWED"
	CodeOutOfRange         = "FIELD_OUT_OF_RANGE"
	CodeRangeInvalid       = "FIELD_RANGE_INVALID"
	CodeInvalidColor       = "FIELD_INVALID_COLOR"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeNotProvisioned     = "COLLECTION_NOT_PROVISIONED"
	CodeItemStorageFailure = "ITEM_STORAGE_FAILURE"
)

// envelopeKeys are the wrapper keys richer client payloads nest the actual
// value under. Unwrapping happens once, before any rule runs.
var envelopeKeys = []string{"value", "valor", "options", "opcoes"}

// hexColor matches a 3- or 6-digit hex color without the leading '#'.
var hexColor = regexp.MustCompile(`^(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateValue checks one submitted value against one field definition and
// returns zero or more notifications scoped to that field. It is pure; the
// caller aggregates results across all fields of the collection. A failed
// required check short-circuits every other rule for the field.
func ValidateValue(f collection.Field, value any) []notify.Notification {
	value = unwrapEnvelope(value)
	c := f.Constraints

	if isAbsent(value) {
		if c.Required {
			return []notify.Notification{notify.Client(CodeFieldRequired, f.Slug,
				fmt.Sprintf("field %q is required", f.Name))}
		}
		return nil
	}

	switch f.Type {
	case collection.FieldTypeInput, collection.FieldTypeText:
		return validateTextValue(f, value)
	case collection.FieldTypeNumber:
		return validateNumberValue(f, value)
	case collection.FieldTypeSelect, collection.FieldTypeRadio:
		return validateOptionValue(f, value)
	case collection.FieldTypeCheckbox:
		return validateCheckboxValue(f, value)
	case collection.FieldTypeRange:
		return validateRangeValue(f, value)
	case collection.FieldTypeColor:
		return validateColorValue(f, value)
	}

	// email, bool, and file fields carry no value rules beyond required.
	return nil
}

// unwrapEnvelope extracts the nested value from a client payload wrapper
// object, when present. Only one level is unwrapped.
func unwrapEnvelope(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	for _, key := range envelopeKeys {
		if inner, ok := m[key]; ok {
			return inner
		}
	}
	return value
}

// isAbsent reports whether a value counts as missing for the required rule:
// absent, null, or a blank string.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func validateTextValue(f collection.Field, value any) []notify.Notification {
	s, ok := value.(string)
	if !ok {
		return []notify.Notification{notify.Client(CodeFieldNotString, f.Slug,
			fmt.Sprintf("field %q must be a string", f.Name))}
	}

	c := f.Constraints
	var notes []notify.Notification
	length := utf8.RuneCountInString(s)

	if c.MinLength != nil && length < *c.MinLength {
		notes = append(notes, notify.Client(CodeFieldTooShort, f.Slug,
			fmt.Sprintf("field %q must be at least %d characters", f.Name, *c.MinLength)))
	}
	if c.MaxLength != nil && length > *c.MaxLength {
		notes = append(notes, notify.Client(CodeFieldTooLong, f.Slug,
			fmt.Sprintf("field %q must be at most %d characters", f.Name, *c.MaxLength)))
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			// A malformed stored pattern is a field error, never a panic.
			notes = append(notes, notify.Client(CodePatternInvalid, f.Slug,
				fmt.Sprintf("field %q has an invalid validation pattern", f.Name)))
		} else if !re.MatchString(s) {
			notes = append(notes, notify.Client(CodePatternMismatch, f.Slug,
				fmt.Sprintf("field %q must match pattern %s", f.Name, c.Pattern)))
		}
	}
	return notes
}

func validateNumberValue(f collection.Field, value any) []notify.Notification {
	d, ok := toDecimal(value)
	if !ok {
		return []notify.Notification{notify.Client(CodeNotNumeric, f.Slug,
			fmt.Sprintf("field %q must be a number", f.Name))}
	}

	c := f.Constraints
	var notes []notify.Notification

	if !c.AllowDecimals && !d.IsInteger() {
		notes = append(notes, notify.Client(CodeDecimalNotAllowed, f.Slug,
			fmt.Sprintf("field %q must be a whole number", f.Name)))
	}
	if c.Min != nil && d.LessThan(decimal.NewFromFloat(*c.Min)) {
		notes = append(notes, notify.Client(CodeOutOfRange, f.Slug,
			fmt.Sprintf("field %q must be at least %g", f.Name, *c.Min)))
	}
	if c.Max != nil && d.GreaterThan(decimal.NewFromFloat(*c.Max)) {
		notes = append(notes, notify.Client(CodeOutOfRange, f.Slug,
			fmt.Sprintf("field %q must be at most %g", f.Name, *c.Max)))
	}
	return notes
}

func validateOptionValue(f collection.Field, value any) []notify.Notification {
	s, ok := value.(string)
	if !ok || !hasOption(f.Constraints.Options, s) {
		return []notify.Notification{unknownOption(f, value)}
	}
	return nil
}

func validateCheckboxValue(f collection.Field, value any) []notify.Notification {
	// A checkbox submits either one option value or a list of them.
	elements, ok := value.([]any)
	if !ok {
		elements = []any{value}
	}

	var notes []notify.Notification
	for _, el := range elements {
		s, ok := el.(string)
		if !ok || !hasOption(f.Constraints.Options, s) {
			notes = append(notes, unknownOption(f, el))
		}
	}
	return notes
}

func validateRangeValue(f collection.Field, value any) []notify.Notification {
	d, ok := toDecimal(value)
	if !ok {
		return []notify.Notification{notify.Client(CodeNotNumeric, f.Slug,
			fmt.Sprintf("field %q must be a number", f.Name))}
	}

	c := f.Constraints
	// Definition validation guarantees both bounds on anything it created,
	// but a hand-built or legacy field definition may lack one.
	if c.Min == nil || c.Max == nil {
		return []notify.Notification{notify.Client(CodeRangeInvalid, f.Slug,
			fmt.Sprintf("field %q has an incomplete range definition", f.Name))}
	}

	// Bounds are inclusive.
	min := decimal.NewFromFloat(*c.Min)
	max := decimal.NewFromFloat(*c.Max)
	if d.LessThan(min) || d.GreaterThan(max) {
		return []notify.Notification{notify.Client(CodeOutOfRange, f.Slug,
			fmt.Sprintf("field %q must be between %g and %g", f.Name, *c.Min, *c.Max))}
	}
	return nil
}

func validateColorValue(f collection.Field, value any) []notify.Notification {
	invalid := []notify.Notification{notify.Client(CodeInvalidColor, f.Slug,
		fmt.Sprintf("field %q must be a 3 or 6 digit hex color", f.Name))}

	s, ok := value.(string)
	if !ok {
		return invalid
	}
	s = strings.TrimPrefix(s, "#")
	if !hexColor.MatchString(s) {
		return invalid
	}
	return nil
}

// hasOption reports whether v is one of the declared option values.
func hasOption(options []collection.Option, v string) bool {
	for _, opt := range options {
		if opt.Value == v {
			return true
		}
	}
	return false
}

// unknownOption builds the notification for a value outside the declared
// options, listing every permitted value.
func unknownOption(f collection.Field, value any) notify.Notification {
	permitted := make([]string, len(f.Constraints.Options))
	for i, opt := range f.Constraints.Options {
		permitted[i] = opt.Value
	}
	return notify.Client(CodeOptionUnknown, f.Slug,
		fmt.Sprintf("value %v of field %q is not permitted; allowed values: %s",
			value, f.Name, strings.Join(permitted, ", ")))
}

// toDecimal parses a submitted value as an arbitrary-precision decimal.
// Integers, floats, json.Number, and numeric strings are all accepted; the
// first successful interpretation wins.
func toDecimal(value any) (decimal.Decimal, bool) {
	switch n := value.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
