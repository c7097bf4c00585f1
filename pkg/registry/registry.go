// pkg/registry/registry.go
//
// Package registry loads policy snapshot files published alongside the
// workers. YAML and JSON documents share one layout.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"migration-assessment/internal/common/validation"
	"migration-assessment/internal/models"

	"gopkg.in/yaml.v3"
)

// LoadSnapshot reads one snapshot file. Every ruleset is schema-checked and
// compiled; the first failure rejects the file.
func LoadSnapshot(path string) (*models.PolicySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrInvalidRuleset, path, err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("%s: unsupported snapshot format %q", path, filepath.Ext(path))
	}

	snapshot, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, nil
}

// LoadDir loads every snapshot file in dir, ordered by file name.
func LoadDir(dir string) ([]*models.PolicySnapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	snapshots := make([]*models.PolicySnapshot, 0, len(names))
	for _, name := range names {
		snapshot, err := LoadSnapshot(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

type snapshotDocument struct {
	ID            string                   `json:"id"`
	EffectiveDate models.Date              `json:"effective_date"`
	References    []models.PolicyReference `json:"references"`
	Rulesets      []json.RawMessage        `json:"rulesets"`
}

// ParseSnapshot compiles a JSON snapshot document.
func ParseSnapshot(data []byte) (*models.PolicySnapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidRuleset, err)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, fmt.Errorf("%w: snapshot id is required", models.ErrInvalidRuleset)
	}
	if len(doc.Rulesets) == 0 {
		return nil, fmt.Errorf("%w: snapshot %s has no rulesets", models.ErrInvalidRuleset, doc.ID)
	}

	snapshot := &models.PolicySnapshot{
		ID:            doc.ID,
		EffectiveDate: doc.EffectiveDate,
		References:    doc.References,
		Rulesets:      make([]*models.Ruleset, 0, len(doc.Rulesets)),
	}
	for i, raw := range doc.Rulesets {
		result, err := validation.ValidateRulesetDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: ruleset %d: %v", models.ErrInvalidRuleset, i, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: ruleset %d: %s", models.ErrInvalidRuleset, i, result.Summary())
		}

		rs, err := models.DecodeRuleset(raw)
		if err != nil {
			return nil, fmt.Errorf("ruleset %d: %w", i, err)
		}
		rs.PolicySnapshotID = doc.ID
		snapshot.Rulesets = append(snapshot.Rulesets, rs)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// yamlToJSON re-encodes a YAML document so it decodes through the same JSON
// path as a .json file.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
