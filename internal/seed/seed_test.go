package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/notify"
)

const sampleSeed = `
stages:
  - key: dev
    label: Development
  - key: prod
    label: Production

collections:
  - stage: dev
    name: Articles
    fields:
      - type: input
        name: Title
        constraints:
          required: true
          max_length: 120
      - type: number
        name: Rating
        constraints:
          min: 0
          max: 5
          allow_decimals: true
      - type: select
        name: Category
        constraints:
          options:
            - label: News
              value: news
            - label: Tech
              value: tech
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sampleSeed), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(f.Stages) != 2 || f.Stages[0].Key != "dev" || f.Stages[1].Label != "Production" {
		t.Errorf("stages = %+v", f.Stages)
	}
	if len(f.Collections) != 1 {
		t.Fatalf("collections = %+v", f.Collections)
	}
	c := f.Collections[0]
	if c.Stage != "dev" || c.Name != "Articles" || len(c.Fields) != 3 {
		t.Errorf("collection = %+v", c)
	}
	if c.Fields[0].Constraints.MaxLength == nil || *c.Fields[0].Constraints.MaxLength != 120 {
		t.Errorf("max_length = %v", c.Fields[0].Constraints.MaxLength)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("stages: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml must fail")
	}
}

func TestSeedFields(t *testing.T) {
	fields := seedFields([]FieldSeed{
		{
			Type: "input",
			Name: "Title",
			Constraints: ConstraintsSeed{
				Required:  true,
				MaxLength: intptr(120),
				Pattern:   `^\w+$`,
			},
		},
		{
			Type: "select",
			Name: "Category",
			Constraints: ConstraintsSeed{
				Options: []OptionSeed{{Label: "News", Value: "news"}},
			},
		},
		{Type: "bool", Name: "Published"},
	})

	if len(fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(fields))
	}

	title := fields[0]
	if title.Type != collection.FieldTypeInput || title.Name != "Title" {
		t.Errorf("title field = %+v", title)
	}
	if !title.Constraints.Required || *title.Constraints.MaxLength != 120 || title.Constraints.Pattern != `^\w+$` {
		t.Errorf("title constraints = %+v", title.Constraints)
	}

	category := fields[1]
	if len(category.Constraints.Options) != 1 || category.Constraints.Options[0].Value != "news" {
		t.Errorf("category options = %+v", category.Constraints.Options)
	}

	// No declared options maps to nil, not an empty slice.
	if fields[2].Constraints.Options != nil {
		t.Errorf("published options = %+v, want nil", fields[2].Constraints.Options)
	}
}

func TestIsNameTaken(t *testing.T) {
	taken := notify.Single(notify.Client(collection.CodeNameTaken, "name", "taken"))
	if !isNameTaken(taken) {
		t.Error("name-taken notification not recognized")
	}

	other := notify.Single(notify.Client(collection.CodeNameInvalid, "name", "bad"))
	if isNameTaken(other) {
		t.Error("unrelated notification treated as name-taken")
	}

	if isNameTaken(errors.New("boom")) {
		t.Error("plain error treated as name-taken")
	}
}

func intptr(v int) *int { return &v }
