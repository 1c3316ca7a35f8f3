package reports

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "vaultaudit/internal/platform/errors"
	pstrings "vaultaudit/internal/platform/strings"
)

// BaselineEntry is one known-before-the-window identity, as produced by
// fetch-baseline. Only EntityID participates in churn classification; the
// names ride along for enrichment.
type BaselineEntry struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	AliasName  string `json:"alias_name,omitempty"`
}

// Name returns the best available name for the entry
func (e BaselineEntry) Name() string {
	return pstrings.Coalesce(e.EntityName, e.AliasName)
}

// BaselineSet is a read-only membership set of pre-existing entity ids
type BaselineSet struct {
	names map[string]string
}

// NewBaselineSet builds a set from entries
func NewBaselineSet(entries []BaselineEntry) *BaselineSet {
	s := &BaselineSet{names: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.EntityID == "" {
			continue
		}
		if cur, ok := s.names[e.EntityID]; !ok || cur == "" {
			s.names[e.EntityID] = e.Name()
		}
	}
	return s
}

// Has reports membership; nil set means empty baseline
func (s *BaselineSet) Has(entityID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[entityID]
	return ok
}

// Name returns the baseline name for an entity id, if any
func (s *BaselineSet) Name(entityID string) string {
	if s == nil {
		return ""
	}
	return s.names[entityID]
}

// Len returns the number of baseline entities
func (s *BaselineSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// LoadBaseline reads a baseline produced by fetch-baseline. Extension picks
// the codec: .json is an array of entries (bare id strings also accepted),
// anything else is CSV with entity_id in column 0 and entity_name in
// column 1.
func LoadBaseline(path string) (*BaselineSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "open baseline"), path)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		entries, err := decodeBaselineJSON(f)
		if err != nil {
			return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "parse baseline JSON"), path)
		}
		return NewBaselineSet(entries), nil
	}

	entries, err := decodeBaselineCSV(f)
	if err != nil {
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "parse baseline CSV"), path)
	}
	return NewBaselineSet(entries), nil
}

func decodeBaselineJSON(r io.Reader) ([]BaselineEntry, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	entries := make([]BaselineEntry, 0, len(raw))
	for _, m := range raw {
		var e BaselineEntry
		if err := json.Unmarshal(m, &e); err == nil && e.EntityID != "" {
			entries = append(entries, e)
			continue
		}
		var id string
		if err := json.Unmarshal(m, &id); err != nil {
			return nil, err
		}
		entries = append(entries, BaselineEntry{EntityID: id})
	}
	return entries, nil
}

func decodeBaselineCSV(r io.Reader) ([]BaselineEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var entries []BaselineEntry
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == "entity_id" {
				continue
			}
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		e := BaselineEntry{EntityID: rec[0]}
		if len(rec) > 1 {
			e.EntityName = rec[1]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// AliasMap maps entity id to alias names for display enrichment
type AliasMap map[string][]string

// Names returns the alias names for an entity id
func (m AliasMap) Names(entityID string) []string { return m[entityID] }

// First returns the first alias name, or ""
func (m AliasMap) First(entityID string) string {
	if names := m[entityID]; len(names) > 0 {
		return names[0]
	}
	return ""
}

// LoadAliases reads an entity alias mapping. Extension picks the codec:
// .json is an object of entity_id -> name (or -> [names]); anything else is
// CSV with entity_id in column 0 and alias name in column 1.
func LoadAliases(path string) (AliasMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "open alias map"), path)
	}
	defer f.Close()

	m := make(AliasMap)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(f).Decode(&raw); err != nil {
			return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "parse alias JSON"), path)
		}
		for id, v := range raw {
			var one string
			if err := json.Unmarshal(v, &one); err == nil {
				m[id] = append(m[id], one)
				continue
			}
			var many []string
			if err := json.Unmarshal(v, &many); err != nil {
				return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "parse alias JSON"), path)
			}
			m[id] = append(m[id], many...)
		}
		return m, nil
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "parse alias CSV"), path)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == "entity_id" {
				continue
			}
		}
		if len(rec) < 2 || rec[0] == "" {
			continue
		}
		m[rec[0]] = append(m[rec[0]], rec[1])
	}
	return m, nil
}
