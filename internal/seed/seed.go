// Package seed bootstraps stages and collections from a YAML file at
// startup. Seeding is idempotent: stages are ensured by key and a
// collection whose name already exists in its stage is skipped, so the same
// file can be applied on every boot.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/notify"
	"github.com/quarrylabs/quarry-cms/internal/stage"
)

// File is the root of a seed YAML document.
type File struct {
	Stages      []StageSeed      `yaml:"stages"`
	Collections []CollectionSeed `yaml:"collections"`
}

// StageSeed declares one stage to ensure.
type StageSeed struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// CollectionSeed declares one collection to create in a stage.
type CollectionSeed struct {
	Stage  string      `yaml:"stage"`
	Name   string      `yaml:"name"`
	Fields []FieldSeed `yaml:"fields"`
}

// FieldSeed declares one field of a seeded collection.
type FieldSeed struct {
	Type        string          `yaml:"type"`
	Name        string          `yaml:"name"`
	Constraints ConstraintsSeed `yaml:"constraints"`
}

// ConstraintsSeed mirrors the constraint payload in YAML form.
type ConstraintsSeed struct {
	Required      bool         `yaml:"required"`
	MinLength     *int         `yaml:"min_length"`
	MaxLength     *int         `yaml:"max_length"`
	Pattern       string       `yaml:"pattern"`
	Min           *float64     `yaml:"min"`
	Max           *float64     `yaml:"max"`
	AllowDecimals bool         `yaml:"allow_decimals"`
	Options       []OptionSeed `yaml:"options"`
	MaxFileSize   *int64       `yaml:"max_file_size"`
	AllowedTypes  []string     `yaml:"allowed_types"`
}

// OptionSeed is one selectable choice of a seeded field.
type OptionSeed struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Seeder applies seed files against the stage and collection layers.
type Seeder struct {
	stages      *stage.Repository
	collections *collection.Service
}

// NewSeeder creates a new Seeder.
func NewSeeder(stages *stage.Repository, collections *collection.Service) *Seeder {
	return &Seeder{stages: stages, collections: collections}
}

// Apply ensures every declared stage and creates every declared collection
// that does not already exist. A collection whose name is taken is logged
// and skipped rather than treated as a failure.
func (s *Seeder) Apply(ctx context.Context, f *File) error {
	byKey := make(map[string]*stage.Stage)

	for _, ss := range f.Stages {
		st, err := s.stages.Ensure(ctx, ss.Key, ss.Label)
		if err != nil {
			return fmt.Errorf("ensuring stage %q: %w", ss.Key, err)
		}
		byKey[st.Key] = st
	}

	for _, cs := range f.Collections {
		st, ok := byKey[cs.Stage]
		if !ok {
			loaded, err := s.stages.GetByKey(ctx, cs.Stage)
			if err != nil {
				return fmt.Errorf("collection %q references unknown stage %q: %w", cs.Name, cs.Stage, err)
			}
			st = loaded
			byKey[st.Key] = st
		}

		_, err := s.collections.Create(ctx, st.ID, st.Key, cs.Name, seedFields(cs.Fields))
		if err != nil {
			if isNameTaken(err) {
				slog.Info("seed collection already exists, skipping",
					"name", cs.Name, "stage", cs.Stage)
				continue
			}
			return fmt.Errorf("creating seed collection %q: %w", cs.Name, err)
		}
		slog.Info("seed collection created", "name", cs.Name, "stage", cs.Stage)
	}

	return nil
}

// seedFields maps YAML field declarations onto the schema model.
func seedFields(fields []FieldSeed) []collection.Field {
	out := make([]collection.Field, len(fields))
	for i, f := range fields {
		options := make([]collection.Option, len(f.Constraints.Options))
		for j, o := range f.Constraints.Options {
			options[j] = collection.Option{Label: o.Label, Value: o.Value}
		}
		if len(options) == 0 {
			options = nil
		}

		out[i] = collection.Field{
			Type: collection.FieldType(f.Type),
			Name: f.Name,
			Constraints: collection.Constraints{
				Required:      f.Constraints.Required,
				MinLength:     f.Constraints.MinLength,
				MaxLength:     f.Constraints.MaxLength,
				Pattern:       f.Constraints.Pattern,
				Min:           f.Constraints.Min,
				Max:           f.Constraints.Max,
				AllowDecimals: f.Constraints.AllowDecimals,
				Options:       options,
				MaxFileSize:   f.Constraints.MaxFileSize,
				AllowedTypes:  f.Constraints.AllowedTypes,
			},
		}
	}
	return out
}

// isNameTaken reports whether the error is the duplicate-name rejection.
func isNameTaken(err error) bool {
	var nerr *notify.Error
	if !errors.As(err, &nerr) {
		return false
	}
	for _, n := range nerr.Notifications {
		if n.Code == collection.CodeNameTaken {
			return true
		}
	}
	return false
}
