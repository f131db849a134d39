// Package collection implements the dynamic schema engine of Quarry: the
// stage-scoped Collection aggregate with its embedded typed fields, the
// definition-time validation of field constraint payloads, and the schema
// manager that provisions a dynamically named backing store per collection.
package collection

import "time"

// FieldType represents the type of a collection field.
type FieldType string

// Supported field types for collection schemas.
const (
	FieldTypeInput    FieldType = "input"
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeBool     FieldType = "bool"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
	FieldTypeRange    FieldType = "range"
	FieldTypeColor    FieldType = "color"
)

// validFieldTypes is the set of all supported field types, used for validation.
var validFieldTypes = map[FieldType]bool{
	FieldTypeInput:    true,
	FieldTypeText:     true,
	FieldTypeNumber:   true,
	FieldTypeEmail:    true,
	FieldTypeSelect:   true,
	FieldTypeRadio:    true,
	FieldTypeBool:     true,
	FieldTypeCheckbox: true,
	FieldTypeFile:     true,
	FieldTypeRange:    true,
	FieldTypeColor:    true,
}

// Option is one selectable choice of a select, radio, or checkbox field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Constraints is the type-specific constraint payload of a field. Only the
// members relevant to the field's type are populated; the validator
// dispatches on the field type, never on which members happen to be set.
type Constraints struct {
	// Required applies to every field type.
	Required bool `json:"required,omitempty"`

	// MinLength is the minimum character length. Input and text fields only.
	MinLength *int `json:"min_length,omitempty"`

	// MaxLength is the maximum character length. Input and text fields only.
	MaxLength *int `json:"max_length,omitempty"`

	// Pattern is a regular expression the value must match. Input and text
	// fields only.
	Pattern string `json:"pattern,omitempty"`

	// Min is the minimum numeric value. Number fields may set it; range
	// fields must.
	Min *float64 `json:"min,omitempty"`

	// Max is the maximum numeric value. Number fields may set it; range
	// fields must, and it must exceed Min.
	Max *float64 `json:"max,omitempty"`

	// AllowDecimals permits fractional values on number fields.
	AllowDecimals bool `json:"allow_decimals,omitempty"`

	// Options is the ordered list of allowed choices for select, radio,
	// and checkbox fields. Must be non-empty for those types.
	Options []Option `json:"options,omitempty"`

	// MaxFileSize is the upload size limit in bytes. File fields only.
	MaxFileSize *int64 `json:"max_file_size,omitempty"`

	// AllowedTypes lists accepted content-type patterns. File fields only.
	AllowedTypes []string `json:"allowed_types,omitempty"`
}

// Field is one typed, constrained attribute of a collection schema. Fields
// are embedded in their collection and have no independent identity: the
// slug, derived from the name and forced lowercase, is how items address
// them.
type Field struct {
	Type        FieldType   `json:"type"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Constraints Constraints `json:"constraints"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Collection is a user-defined schema plus the identity of its dynamic
// backing store. Name, Slug, and BackingStoreName are each unique within
// the owning stage; the backing store name may repeat across stages since
// the stage key is embedded in it.
type Collection struct {
	ID               string    `json:"id"`
	StageID          string    `json:"stage_id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	BackingStoreName string    `json:"backing_store_name,omitempty"`
	Fields           []Field   `json:"fields"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FieldBySlug returns the field with the given slug, or false when the
// collection has no such field.
func (c *Collection) FieldBySlug(slug string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Slug == slug {
			return f, true
		}
	}
	return Field{}, false
}
