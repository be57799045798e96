package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Tuning holds the geometric and line-scanning tolerances. Distances are in
// page points (1/72 inch) with the origin at the top-left corner of the page.
type Tuning struct {
	// DescriptionCutoff: description words must start above this distance from the page top.
	DescriptionCutoff float64 `yaml:"description_cutoff" json:"description_cutoff"`
	// LineTolerance: words whose rounded tops differ by less than this share a line.
	LineTolerance float64 `yaml:"line_tolerance" json:"line_tolerance"`
	// ColumnTolerance widens each column interval on both sides.
	ColumnTolerance float64 `yaml:"column_tolerance" json:"column_tolerance"`
	// SlotRowTolerance: a slot label may sit this far below the code row and still count as above it.
	SlotRowTolerance float64 `yaml:"slot_row_tolerance" json:"slot_row_tolerance"`
	// WordGapFactor: glyph gap, as a fraction of font size, that starts a new word (native PDF reader).
	WordGapFactor float64 `yaml:"word_gap_factor" json:"word_gap_factor"`

	// LookbackLines is how many lines above a code row are searched for descriptions.
	LookbackLines int `yaml:"lookback_lines" json:"lookback_lines"`
	// MinCandidateLen: shorter lines (in runes) are never description rows.
	MinCandidateLen int `yaml:"min_candidate_len" json:"min_candidate_len"`
	// MetadataPages is how many leading pages are scanned for substation/bay/voltage.
	MetadataPages int `yaml:"metadata_pages" json:"metadata_pages"`
}

func DefaultTuning() Tuning {
	return Tuning{
		DescriptionCutoff: 70,
		LineTolerance:     4,
		ColumnTolerance:   20,
		SlotRowTolerance:  5,
		WordGapFactor:     0.25,
		LookbackLines:     15,
		MinCandidateLen:   15,
		MetadataPages:     3,
	}
}

// TuningJSONSchema returns the JSON-Schema used to validate tuning files.
func TuningJSONSchema() map[string]any {
	positive := func() map[string]any { return map[string]any{"type": "number", "exclusiveMinimum": 0} }
	count := func(max int) map[string]any {
		return map[string]any{"type": "integer", "minimum": 1, "maximum": max}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description_cutoff": positive(),
			"line_tolerance":     positive(),
			"column_tolerance":   map[string]any{"type": "number", "minimum": 0},
			"slot_row_tolerance": map[string]any{"type": "number", "minimum": 0},
			"word_gap_factor":    map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 5},
			"lookback_lines":     count(200),
			"min_candidate_len":  count(500),
			"metadata_pages":     count(50),
		},
	}
}

// LoadTuningFile reads a YAML tuning file over DefaultTuning. Keys that are
// absent keep their default value. An empty path returns the defaults.
func LoadTuningFile(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := ParseTuning(raw, &t); err != nil {
		return DefaultTuning(), NewAppError("CONFIG_ERROR", path, err)
	}
	return t, nil
}

// ParseTuning validates YAML bytes against TuningJSONSchema and decodes them into t.
func ParseTuning(raw []byte, t *Tuning) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: yaml: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		return nil
	}
	// round-trip through JSON so the validator sees plain JSON types
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: tuning must be a mapping: %v", ErrInvalidConfig, err)
	}
	if err := validateJSON(TuningJSONSchema(), asJSON); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return fmt.Errorf("%w: yaml: %v", ErrInvalidConfig, err)
	}
	return nil
}

func validateJSON(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tuning.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("tuning.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("tuning does not match schema: %w", err)
	}
	return nil
}
