package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathMember is a literal path fragment or a reference to the n-th value
// of the structure's providers list.
type PathMember struct {
	Literal  string
	Provider *int
}

// UnmarshalJSON accepts a string or {"provider": n}. Anything else renders
// as an empty fragment.
func (m *PathMember) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = PathMember{}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.Literal)
	}
	if len(data) > 0 && data[0] == '{' {
		var raw struct {
			Provider *int `json:"provider"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		m.Provider = raw.Provider
	}
	return nil
}

// Rank orders structure fragments. A dominant structure discards all
// fragments gathered before it and stops the evaluation.
type Rank struct {
	Dominant bool    `json:"dominant"`
	Weight   float64 `json:"weight"`
}

// Structure is a rule contributing one path fragment.
type Structure struct {
	Criteria Requirement
	Supplier ProviderSupplier
	Path     []PathMember
	Rank     *Rank
}

// UnmarshalJSON decodes a structure rule object.
func (s *Structure) UnmarshalJSON(data []byte) error {
	var raw struct {
		Criteria  json.RawMessage   `json:"criteria"`
		Provider  json.RawMessage   `json:"provider"`
		Providers []json.RawMessage `json:"providers"`
		Path      []PathMember      `json:"path"`
		Rank      *Rank             `json:"rank"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	criteria, err := ParseRequirement(raw.Criteria)
	if err != nil {
		return err
	}
	supplier, err := parseProviderSupplier(raw.Provider, raw.Providers)
	if err != nil {
		return err
	}
	*s = Structure{Criteria: criteria, Supplier: supplier, Path: raw.Path, Rank: raw.Rank}
	return nil
}

type fragment struct {
	weight float64
	path   string
}

// CreatePath evaluates structures in order and joins the fragments of the
// matching ones by ascending weight. Equal weights keep evaluation order.
// The fragment values come from each structure's providers list; the
// single provider field of a structure is not consulted.
func CreatePath(structures []Structure, ctx *Context, session *Session) (string, error) {
	var fragments []fragment
	for i := range structures {
		s := &structures[i]
		if !Test(s.Criteria, ctx, session) {
			continue
		}
		provided, err := ResolveAll(s.Supplier.Providers, ctx, session)
		if err != nil {
			return "", fmt.Errorf("structure %d: %w", i, err)
		}

		var b strings.Builder
		for _, member := range s.Path {
			if member.Provider == nil {
				b.WriteString(member.Literal)
				continue
			}
			if idx := *member.Provider; idx >= 0 && idx < len(provided) {
				b.WriteString(provided[idx])
			}
		}

		f := fragment{path: b.String()}
		if s.Rank != nil {
			f.weight = s.Rank.Weight
		}
		if s.Rank != nil && s.Rank.Dominant {
			fragments = []fragment{f}
			break
		}
		fragments = append(fragments, f)
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].weight < fragments[j].weight
	})
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.path
	}
	return JoinPath(parts...), nil
}

// JoinPath joins and cleans path fragments. Unlike filepath.Join a trailing
// separator on the last non-empty fragment is kept, and no fragments yield "".
func JoinPath(parts ...string) string {
	last := ""
	for _, p := range parts {
		if p != "" {
			last = p
		}
	}
	if last == "" {
		return ""
	}
	joined := filepath.Join(parts...)
	if strings.HasSuffix(last, "/") || strings.HasSuffix(last, string(os.PathSeparator)) {
		if !strings.HasSuffix(joined, string(os.PathSeparator)) {
			joined += string(os.PathSeparator)
		}
	}
	return joined
}
