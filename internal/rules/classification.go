package rules

import (
	"encoding/json"
	"fmt"
)

// ActionTag is the only known action discriminant.
const ActionTag = "tag"

// Action is the effect of a matching classification.
type Action interface {
	Type() string
	action()
}

// TagAction writes a tag value and records the classification that set it.
type TagAction struct {
	Tag   string
	Value Supplier
}

// UnknownAction carries an unrecognised discriminant.
type UnknownAction struct {
	Kind string
}

func (*TagAction) Type() string       { return ActionTag }
func (a *UnknownAction) Type() string { return a.Kind }

func (*TagAction) action()     {}
func (*UnknownAction) action() {}

// Classification is a rule that tags resources matching Criteria.
type Classification struct {
	Name     string
	Criteria Requirement
	Supplier ProviderSupplier
	Action   Action
}

// UnmarshalJSON decodes a classification rule object.
func (c *Classification) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string            `json:"name"`
		Criteria  json.RawMessage   `json:"criteria"`
		Provider  json.RawMessage   `json:"provider"`
		Providers []json.RawMessage `json:"providers"`
		Action    *struct {
			Type  string   `json:"type"`
			Tag   string   `json:"tag"`
			Value Supplier `json:"value"`
		} `json:"action"`
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

	*c = Classification{Name: raw.Name, Criteria: criteria, Supplier: supplier}
	switch {
	case raw.Action == nil:
		c.Action = &UnknownAction{}
	case raw.Action.Type == ActionTag:
		c.Action = &TagAction{Tag: raw.Action.Tag, Value: raw.Action.Value}
	default:
		c.Action = &UnknownAction{Kind: raw.Action.Type}
	}
	return nil
}

// ApplyClassifications runs every matching classification against ctx.
// Classifications are filtered once, then re-tested before applying, so an
// earlier action can disable a later one. The first error aborts the run
// and leaves ctx partially updated.
func ApplyClassifications(classifications []Classification, ctx *Context, session *Session) error {
	matched := make([]*Classification, 0, len(classifications))
	for i := range classifications {
		if Test(classifications[i].Criteria, ctx, session) {
			matched = append(matched, &classifications[i])
		}
	}

	for _, c := range matched {
		if !Test(c.Criteria, ctx, session) {
			continue
		}
		if err := InjectProviders(c.Supplier, session); err != nil {
			return fmt.Errorf("classification %q: %w", c.Name, err)
		}
		if err := applyAction(c, ctx, session); err != nil {
			return fmt.Errorf("classification %q: %w", c.Name, err)
		}
	}
	return nil
}

func applyAction(c *Classification, ctx *Context, session *Session) error {
	switch a := c.Action.(type) {
	case *TagAction:
		value, err := Resolve(a.Value, ctx, session)
		if err != nil {
			return err
		}
		ctx.Tags[a.Tag] = value
		ctx.Classification[a.Tag] = c.Name
		return nil
	case *UnknownAction:
		return invalidType("action", a.Kind)
	default:
		return invalidType("action", "")
	}
}
