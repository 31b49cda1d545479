package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Requirement discriminants.
const (
	RequireAnd         = "and"
	RequireOr          = "or"
	RequireNameStart   = "name_start"
	RequireNameEnd     = "name_end"
	RequireNameContain = "name_contain"
	RequireTagHas      = "tag_has"
	RequireSection     = "section"

	// requireTagAlias is accepted for rule files written against the
	// short discriminant.
	requireTagAlias = "tag"
)

// Requirement is a boolean predicate over a Context.
// The set of implementations is closed.
type Requirement interface {
	Type() string
	requirement()
}

// CollectionRequirement combines child requirements with and/or.
type CollectionRequirement struct {
	Kind   string
	Values []Requirement
}

// NameRequirement matches the file name. name_start and name_end compare
// Value literally as prefix or suffix; name_contain treats it as a pattern.
type NameRequirement struct {
	Kind    string
	Value   string
	pattern *regexp.Regexp
}

// TagRequirement holds when the tag is present and, if Item is set, equal
// to Item.
type TagRequirement struct {
	Tag  string
	Item string
}

// SectionRequirement holds when the section index lies in [Start, End].
// A missing or zero bound never matches.
type SectionRequirement struct {
	Start *int
	End   *int
}

// UnknownRequirement carries an unrecognised discriminant. It never holds.
type UnknownRequirement struct {
	Kind string
}

func (r *CollectionRequirement) Type() string { return r.Kind }
func (r *NameRequirement) Type() string       { return r.Kind }
func (r *TagRequirement) Type() string        { return RequireTagHas }
func (r *SectionRequirement) Type() string    { return RequireSection }
func (r *UnknownRequirement) Type() string    { return r.Kind }

func (*CollectionRequirement) requirement() {}
func (*NameRequirement) requirement()       {}
func (*TagRequirement) requirement()        {}
func (*SectionRequirement) requirement()    {}
func (*UnknownRequirement) requirement()    {}

// NewNameRequirement compiles a name requirement of the given kind.
func NewNameRequirement(kind, value string) (*NameRequirement, error) {
	switch kind {
	case RequireNameStart, RequireNameEnd:
		return &NameRequirement{Kind: kind, Value: value}, nil
	case RequireNameContain:
	default:
		return nil, invalidType("requirement", kind)
	}
	re, err := regexp.Compile(value)
	if err != nil {
		return nil, &ConfigError{Kind: kind, Err: fmt.Errorf("invalid pattern %q: %w", value, err)}
	}
	return &NameRequirement{Kind: kind, Value: value, pattern: re}, nil
}

// Test evaluates req against ctx. A nil requirement always holds.
func Test(req Requirement, ctx *Context, session *Session) bool {
	switch r := req.(type) {
	case nil:
		return true
	case *CollectionRequirement:
		switch r.Kind {
		case RequireAnd:
			for _, v := range r.Values {
				if !Test(v, ctx, session) {
					return false
				}
			}
			return true
		case RequireOr:
			for _, v := range r.Values {
				if Test(v, ctx, session) {
					return true
				}
			}
		}
		return false
	case *NameRequirement:
		switch r.Kind {
		case RequireNameStart:
			return strings.HasPrefix(ctx.FileName, r.Value)
		case RequireNameEnd:
			return strings.HasSuffix(ctx.FileName, r.Value)
		}
		if r.pattern == nil {
			return false
		}
		return r.pattern.MatchString(ctx.FileName)
	case *TagRequirement:
		value, ok := ctx.Tags[r.Tag]
		if !ok {
			return false
		}
		return r.Item == "" || value == r.Item
	case *SectionRequirement:
		if r.Start == nil || *r.Start == 0 || r.End == nil || *r.End == 0 {
			return false
		}
		return ctx.Section >= *r.Start && ctx.Section <= *r.End
	default:
		return false
	}
}

type requirementJSON struct {
	Type   string            `json:"type"`
	Values []json.RawMessage `json:"values"`
	Value  string            `json:"value"`
	Tag    string            `json:"tag"`
	Item   string            `json:"item"`
	Start  *int              `json:"start"`
	End    *int              `json:"end"`
}

// ParseRequirement decodes a requirement object. Null decodes to nil.
func ParseRequirement(data []byte) (Requirement, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw requirementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode requirement: %w", err)
	}

	switch raw.Type {
	case RequireAnd, RequireOr:
		values := make([]Requirement, 0, len(raw.Values))
		for _, v := range raw.Values {
			child, err := ParseRequirement(v)
			if err != nil {
				return nil, err
			}
			if child != nil {
				values = append(values, child)
			}
		}
		return &CollectionRequirement{Kind: raw.Type, Values: values}, nil
	case RequireNameStart, RequireNameEnd, RequireNameContain:
		return NewNameRequirement(raw.Type, raw.Value)
	case RequireTagHas, requireTagAlias:
		return &TagRequirement{Tag: raw.Tag, Item: raw.Item}, nil
	case RequireSection:
		return &SectionRequirement{Start: raw.Start, End: raw.End}, nil
	default:
		return &UnknownRequirement{Kind: raw.Type}, nil
	}
}

func isNull(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == 'n'
	}
	return true
}
