package item

import (
	"testing"

	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/notify"
)

func intptr(v int) *int         { return &v }
func f64ptr(v float64) *float64 { return &v }

func textField(c collection.Constraints) collection.Field {
	return collection.Field{Name: "Title", Slug: "title", Type: collection.FieldTypeInput, Constraints: c}
}

func assertCodes(t *testing.T, notes []notify.Notification, want []string) {
	t.Helper()
	got := make([]string, len(notes))
	for i, n := range notes {
		got[i] = n.Code
	}
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
}

func TestValidateValueRequired(t *testing.T) {
	f := textField(collection.Constraints{Required: true, MinLength: intptr(5)})

	tests := []struct {
		name     string
		value    any
		wantCode string
	}{
		{"nil value", nil, CodeFieldRequired},
		{"blank string", "   ", CodeFieldRequired},
		{"present value passes required", "hello", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := ValidateValue(f, tt.value)
			if tt.wantCode == "" {
				if len(notes) != 0 {
					t.Fatalf("expected no notifications, got %v", notes)
				}
				return
			}
			if len(notes) != 1 {
				t.Fatalf("expected exactly one notification, got %v", notes)
			}
			if notes[0].Code != tt.wantCode {
				t.Errorf("code = %s, want %s", notes[0].Code, tt.wantCode)
			}
			if notes[0].Field != "title" {
				t.Errorf("field = %s, want title", notes[0].Field)
			}
		})
	}
}

func TestValidateValueAbsentOptionalIsClean(t *testing.T) {
	f := textField(collection.Constraints{MinLength: intptr(5)})
	if notes := ValidateValue(f, nil); len(notes) != 0 {
		t.Errorf("optional absent value must not be validated, got %v", notes)
	}
	if notes := ValidateValue(f, ""); len(notes) != 0 {
		t.Errorf("optional blank value must not be validated, got %v", notes)
	}
}

func TestValidateValueText(t *testing.T) {
	tests := []struct {
		name        string
		constraints collection.Constraints
		value       any
		wantCodes   []string
	}{
		{"within bounds", collection.Constraints{MinLength: intptr(2), MaxLength: intptr(5)}, "abc", nil},
		{"too short", collection.Constraints{MinLength: intptr(5)}, "abc", []string{CodeFieldTooShort}},
		{"too long", collection.Constraints{MaxLength: intptr(2)}, "abc", []string{CodeFieldTooLong}},
		{"length counts runes not bytes", collection.Constraints{MaxLength: intptr(3)}, "héço", []string{CodeFieldTooLong}},
		{"rune count within max", collection.Constraints{MaxLength: intptr(4)}, "héço", nil},
		{"not a string", collection.Constraints{}, 42, []string{CodeFieldNotString}},
		{"pattern match", collection.Constraints{Pattern: `^[a-z]+$`}, "abc", nil},
		{"pattern mismatch", collection.Constraints{Pattern: `^[a-z]+$`}, "ABC", []string{CodePatternMismatch}},
		{"malformed stored pattern", collection.Constraints{Pattern: `[unclosed`}, "abc", []string{CodePatternInvalid}},
		{
			"collects every violation",
			collection.Constraints{MinLength: intptr(10), Pattern: `^\d+$`},
			"abc",
			[]string{CodeFieldTooShort, CodePatternMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := ValidateValue(textField(tt.constraints), tt.value)
			assertCodes(t, notes, tt.wantCodes)
		})
	}
}

func TestValidateValueNumber(t *testing.T) {
	field := func(c collection.Constraints) collection.Field {
		return collection.Field{Name: "Price", Slug: "price", Type: collection.FieldTypeNumber, Constraints: c}
	}

	tests := []struct {
		name        string
		constraints collection.Constraints
		value       any
		wantCodes   []string
	}{
		{"integer accepted", collection.Constraints{}, 10, nil},
		{"float accepted when decimals allowed", collection.Constraints{AllowDecimals: true}, 10.5, nil},
		{"decimal rejected when not allowed", collection.Constraints{}, 10.5, []string{CodeDecimalNotAllowed}},
		{"whole float is not a decimal", collection.Constraints{}, 10.0, nil},
		{"numeric string accepted", collection.Constraints{AllowDecimals: true}, " 10.5 ", nil},
		{"non-numeric string rejected", collection.Constraints{}, "ten", []string{CodeNotNumeric}},
		{"non-numeric type rejected", collection.Constraints{}, true, []string{CodeNotNumeric}},
		{"min bound inclusive", collection.Constraints{Min: f64ptr(5)}, 5, nil},
		{"below min", collection.Constraints{Min: f64ptr(5)}, 4, []string{CodeOutOfRange}},
		{"max bound inclusive", collection.Constraints{Max: f64ptr(5)}, 5, nil},
		{"above max", collection.Constraints{Max: f64ptr(5)}, 6, []string{CodeOutOfRange}},
		{
			"decimal and range violations both reported",
			collection.Constraints{Max: f64ptr(5)},
			5.5,
			[]string{CodeDecimalNotAllowed, CodeOutOfRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := ValidateValue(field(tt.constraints), tt.value)
			assertCodes(t, notes, tt.wantCodes)
		})
	}
}

func TestValidateValueOptions(t *testing.T) {
	opts := []collection.Option{{Label: "News", Value: "news"}, {Label: "Tech", Value: "tech"}}
	selectField := collection.Field{
		Name: "Category", Slug: "category", Type: collection.FieldTypeSelect,
		Constraints: collection.Constraints{Options: opts},
	}
	checkboxField := collection.Field{
		Name: "Tags", Slug: "tags", Type: collection.FieldTypeCheckbox,
		Constraints: collection.Constraints{Options: opts},
	}

	t.Run("known option accepted", func(t *testing.T) {
		assertCodes(t, ValidateValue(selectField, "news"), nil)
	})
	t.Run("unknown option rejected", func(t *testing.T) {
		assertCodes(t, ValidateValue(selectField, "sports"), []string{CodeOptionUnknown})
	})
	t.Run("non-string option rejected", func(t *testing.T) {
		assertCodes(t, ValidateValue(selectField, 3), []string{CodeOptionUnknown})
	})
	t.Run("checkbox accepts scalar", func(t *testing.T) {
		assertCodes(t, ValidateValue(checkboxField, "tech"), nil)
	})
	t.Run("checkbox accepts list", func(t *testing.T) {
		assertCodes(t, ValidateValue(checkboxField, []any{"news", "tech"}), nil)
	})
	t.Run("checkbox reports each bad element", func(t *testing.T) {
		assertCodes(t, ValidateValue(checkboxField, []any{"news", "sports", "other"}),
			[]string{CodeOptionUnknown, CodeOptionUnknown})
	})
}

func TestValidateValueRange(t *testing.T) {
	f := collection.Field{
		Name: "Rating", Slug: "rating", Type: collection.FieldTypeRange,
		Constraints: collection.Constraints{Min: f64ptr(0), Max: f64ptr(10)},
	}

	tests := []struct {
		name      string
		value     any
		wantCodes []string
	}{
		{"lower bound inclusive", 0, nil},
		{"upper bound inclusive", 10, nil},
		{"interior value", 5.5, nil},
		{"just below lower bound", -0.001, []string{CodeOutOfRange}},
		{"just above upper bound", 10.001, []string{CodeOutOfRange}},
		{"not numeric", "high", []string{CodeNotNumeric}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCodes(t, ValidateValue(f, tt.value), tt.wantCodes)
		})
	}
}

func TestValidateValueRangeMissingBound(t *testing.T) {
	// A field definition that never went through schema validation may lack
	// a bound; the value check must report it, not panic.
	f := collection.Field{
		Name: "Rating", Slug: "rating", Type: collection.FieldTypeRange,
		Constraints: collection.Constraints{Min: f64ptr(0)},
	}
	assertCodes(t, ValidateValue(f, 5), []string{CodeRangeInvalid})

	f.Constraints = collection.Constraints{}
	assertCodes(t, ValidateValue(f, 5), []string{CodeRangeInvalid})
}

func TestValidateValueColor(t *testing.T) {
	f := collection.Field{Name: "Accent", Slug: "accent", Type: collection.FieldTypeColor}

	tests := []struct {
		name      string
		value     any
		wantCodes []string
	}{
		{"six digit with hash", "#a1b2c3", nil},
		{"three digit with hash", "#FFF", nil},
		{"without hash", "a1b2c3", nil},
		{"wrong length", "#FF", []string{CodeInvalidColor}},
		{"non-hex digits", "#GGGGGG", []string{CodeInvalidColor}},
		{"four digits", "#abcd", []string{CodeInvalidColor}},
		{"not a string", 0xfff, []string{CodeInvalidColor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCodes(t, ValidateValue(f, tt.value), tt.wantCodes)
		})
	}
}

func TestValidateValueEnvelope(t *testing.T) {
	f := textField(collection.Constraints{Required: true, MaxLength: intptr(3)})

	t.Run("value envelope unwrapped", func(t *testing.T) {
		assertCodes(t, ValidateValue(f, map[string]any{"value": "abc"}), nil)
	})
	t.Run("valor envelope unwrapped", func(t *testing.T) {
		assertCodes(t, ValidateValue(f, map[string]any{"valor": "abcdef"}), []string{CodeFieldTooLong})
	})
	t.Run("options envelope unwrapped", func(t *testing.T) {
		opts := collection.Field{
			Name: "Tags", Slug: "tags", Type: collection.FieldTypeCheckbox,
			Constraints: collection.Constraints{Options: []collection.Option{{Label: "A", Value: "a"}}},
		}
		assertCodes(t, ValidateValue(opts, map[string]any{"opcoes": []any{"a"}}), nil)
	})
	t.Run("envelope with absent inner value hits required", func(t *testing.T) {
		assertCodes(t, ValidateValue(f, map[string]any{"value": nil}), []string{CodeFieldRequired})
	})
	t.Run("only one level is unwrapped", func(t *testing.T) {
		nested := map[string]any{"value": map[string]any{"value": "abc"}}
		assertCodes(t, ValidateValue(f, nested), []string{CodeFieldNotString})
	})
}

func TestValidateValueNoRulesTypes(t *testing.T) {
	// email, bool, and file only carry the required rule.
	for _, ft := range []collection.FieldType{
		collection.FieldTypeEmail, collection.FieldTypeBool, collection.FieldTypeFile,
	} {
		f := collection.Field{Name: "X", Slug: "x", Type: ft, Constraints: collection.Constraints{Required: true}}
		if notes := ValidateValue(f, "anything"); len(notes) != 0 {
			t.Errorf("%s: unexpected notifications %v", ft, notes)
		}
		notes := ValidateValue(f, nil)
		if len(notes) != 1 || notes[0].Code != CodeFieldRequired {
			t.Errorf("%s: want a single required notification, got %v", ft, notes)
		}
	}
}
