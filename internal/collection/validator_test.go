package collection

import "testing"

func intptr(v int) *int         { return &v }
func f64ptr(v float64) *float64 { return &v }
func i64ptr(v int64) *int64     { return &v }

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name     string
		collName string
		fields   []Field
		wantCode string
		// wantField is only checked when non-empty.
		wantField string
	}{
		{
			name:     "valid definition passes",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput, Constraints: Constraints{Required: true, MaxLength: intptr(120)}},
				{Name: "Body", Type: FieldTypeText},
				{Name: "Rating", Type: FieldTypeRange, Constraints: Constraints{Min: f64ptr(0), Max: f64ptr(10)}},
			},
		},
		{
			name:     "blank name rejected",
			collName: "   ",
			wantCode: CodeNameRequired,
		},
		{
			name:     "blank field name rejected with index pointer",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput},
				{Name: "  ", Type: FieldTypeText},
			},
			wantCode:  CodeFieldNameRequired,
			wantField: "fields[1]",
		},
		{
			name:     "duplicate field names are case insensitive",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput},
				{Name: "title", Type: FieldTypeText},
			},
			wantCode: CodeFieldNameDuplicate,
		},
		{
			name:     "unknown field type rejected",
			collName: "Articles",
			fields:   []Field{{Name: "Title", Type: "markdown"}},
			wantCode: CodeFieldTypeInvalid,
		},
		{
			name:     "negative min_length rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput, Constraints: Constraints{MinLength: intptr(-1)}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "min_length above max_length rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput, Constraints: Constraints{MinLength: intptr(10), MaxLength: intptr(5)}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "unparseable pattern rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Title", Type: FieldTypeInput, Constraints: Constraints{Pattern: "[unclosed"}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "number max below min rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Price", Type: FieldTypeNumber, Constraints: Constraints{Min: f64ptr(10), Max: f64ptr(1)}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "select without options rejected",
			collName: "Articles",
			fields:   []Field{{Name: "Category", Type: FieldTypeSelect}},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "option without value rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Category", Type: FieldTypeRadio, Constraints: Constraints{Options: []Option{{Label: "News", Value: ""}}}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "range missing a bound rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Rating", Type: FieldTypeRange, Constraints: Constraints{Min: f64ptr(0)}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "range max equal to min rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Rating", Type: FieldTypeRange, Constraints: Constraints{Min: f64ptr(5), Max: f64ptr(5)}},
			},
			wantCode: CodeConstraintInvalid,
		},
		{
			name:     "non-positive max_file_size rejected",
			collName: "Articles",
			fields: []Field{
				{Name: "Cover", Type: FieldTypeFile, Constraints: Constraints{MaxFileSize: i64ptr(0)}},
			},
			wantCode: CodeConstraintInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDefinition(tt.collName, tt.fields)
			if tt.wantCode == "" {
				if got != nil {
					t.Fatalf("expected no notification, got %s (%s)", got.Code, got.Message)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected code %s, got nil", tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
			if tt.wantField != "" && got.Field != tt.wantField {
				t.Errorf("field = %s, want %s", got.Field, tt.wantField)
			}
		})
	}
}

func TestValidateDefinitionStopsAtFirstViolation(t *testing.T) {
	fields := []Field{
		{Name: "", Type: FieldTypeInput},
		{Name: "Body", Type: "markdown"},
	}
	got := ValidateDefinition("Articles", fields)
	if got == nil {
		t.Fatal("expected a notification")
	}
	if got.Code != CodeFieldNameRequired {
		t.Errorf("code = %s, want %s", got.Code, CodeFieldNameRequired)
	}
}
