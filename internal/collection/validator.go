package collection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quarrylabs/quarry-cms/internal/notify"
)

// Stable notification codes for definition validation failures.
const (
	CodeNameRequired       = "COLLECTION_NAME_REQUIRED"
	CodeNameInvalid        = "COLLECTION_NAME_INVALID"
	CodeNameTaken          = "COLLECTION_NAME_TAKEN"
	CodeNotFound           = "COLLECTION_NOT_FOUND"
	CodeFieldNameRequired  = "FIELD_NAME_REQUIRED"
	CodeFieldNameDuplicate = "FIELD_NAME_DUPLICATE"
	CodeFieldTypeInvalid   = "FIELD_TYPE_INVALID"
	CodeConstraintInvalid  = "FIELD_CONSTRAINT_INVALID"
	CodeStorageFailure     = "COLLECTION_STORAGE_FAILURE"
)

// ValidateDefinition checks a submitted collection name and field list
// before anything is persisted. Unlike item validation, which collects every
// problem, definition validation fails fast: the first violation is returned
// as a client notification carrying the offending field pointer, and no
// partial schema survives it.
func ValidateDefinition(name string, fields []Field) *notify.Notification {
	if strings.TrimSpace(name) == "" {
		n := notify.Client(CodeNameRequired, "name", "collection name is required")
		return &n
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			n := notify.Client(CodeFieldNameRequired, fmt.Sprintf("fields[%d]", i), "field name is required")
			return &n
		}

		lower := strings.ToLower(f.Name)
		if seen[lower] {
			n := notify.Client(CodeFieldNameDuplicate, f.Name,
				fmt.Sprintf("field name %q is used more than once", f.Name))
			return &n
		}
		seen[lower] = true

		if !validFieldTypes[f.Type] {
			n := notify.Client(CodeFieldTypeInvalid, f.Name,
				fmt.Sprintf("unknown field type %q", f.Type))
			return &n
		}

		if n := validateConstraints(f); n != nil {
			return n
		}
	}

	return nil
}

// validateConstraints checks that a field's constraint payload matches its
// declared type.
func validateConstraints(f Field) *notify.Notification {
	c := f.Constraints

	fail := func(msg string) *notify.Notification {
		n := notify.Client(CodeConstraintInvalid, f.Name, msg)
		return &n
	}

	switch f.Type {
	case FieldTypeInput, FieldTypeText:
		if c.MinLength != nil && *c.MinLength < 0 {
			return fail(fmt.Sprintf("min_length must be >= 0, got %d", *c.MinLength))
		}
		if c.MaxLength != nil && *c.MaxLength <= 0 {
			return fail(fmt.Sprintf("max_length must be > 0, got %d", *c.MaxLength))
		}
		if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
			return fail(fmt.Sprintf("min_length (%d) must be <= max_length (%d)", *c.MinLength, *c.MaxLength))
		}
		if c.Pattern != "" {
			if _, err := regexp.Compile(c.Pattern); err != nil {
				return fail(fmt.Sprintf("invalid pattern %q: %v", c.Pattern, err))
			}
		}

	case FieldTypeNumber:
		if c.Min != nil && c.Max != nil && *c.Max < *c.Min {
			return fail(fmt.Sprintf("max (%g) must be >= min (%g)", *c.Max, *c.Min))
		}

	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		if len(c.Options) == 0 {
			return fail(fmt.Sprintf("%s field must have a non-empty options list", f.Type))
		}
		for i, opt := range c.Options {
			if opt.Value == "" {
				return fail(fmt.Sprintf("options[%d] must have a value", i))
			}
		}

	case FieldTypeRange:
		if c.Min == nil || c.Max == nil {
			return fail("range field must have both min and max")
		}
		if *c.Max <= *c.Min {
			return fail(fmt.Sprintf("max (%g) must be greater than min (%g)", *c.Max, *c.Min))
		}

	case FieldTypeFile:
		if c.MaxFileSize != nil && *c.MaxFileSize <= 0 {
			return fail(fmt.Sprintf("max_file_size must be > 0, got %d", *c.MaxFileSize))
		}
	}

	return nil
}
