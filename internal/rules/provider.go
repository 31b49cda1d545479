package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Schneison/unima/internal/core/domain"
)

// Provider discriminants.
const (
	ProviderText     = "text"
	ProviderTag      = "tag"
	ProviderSection  = "section"
	ProviderFileName = "file_name"
	ProviderTime     = "time"
	ProviderInherit  = "provider"
)

// Section provider variants.
const (
	SectionVariantName   = "name"
	SectionVariantOffset = "offset"
)

// ValueProvider computes a string from a Context.
// The set of implementations is closed.
type ValueProvider interface {
	Type() string

	// ProviderID is the key the provider is registered under in a Session.
	// For InheritProvider it is also the key it delegates to.
	ProviderID() string

	valueProvider()
}

// TextProvider yields a constant.
type TextProvider struct {
	ID    string
	Value string
}

// TagProvider yields the value of a tag, or "" when absent.
type TagProvider struct {
	ID  string
	Tag string
}

// SectionProvider yields the section name or the section index minus Offset.
type SectionProvider struct {
	ID      string
	Variant string
	Offset  int
}

// FileNameProvider yields the first match of Pattern in the file name.
type FileNameProvider struct {
	ID      string
	Pattern string
	re      *regexp.Regexp
}

// TimeProvider parses Value as a date, optionally advances it by Duration
// (tag value minus DurationOffset) times, and formats it.
type TimeProvider struct {
	ID             string
	Format         string
	Value          string
	Duration       *Duration
	DurationOffset *int
	DurationTag    string
}

// InheritProvider delegates to the session provider registered under ID,
// or to the anonymous session provider when ID is empty.
type InheritProvider struct {
	ID string
}

// UnknownProvider carries an unrecognised discriminant.
type UnknownProvider struct {
	ID   string
	Kind string
}

func (p *TextProvider) Type() string     { return ProviderText }
func (p *TagProvider) Type() string      { return ProviderTag }
func (p *SectionProvider) Type() string  { return ProviderSection }
func (p *FileNameProvider) Type() string { return ProviderFileName }
func (p *TimeProvider) Type() string     { return ProviderTime }
func (p *InheritProvider) Type() string  { return ProviderInherit }
func (p *UnknownProvider) Type() string  { return p.Kind }

func (p *TextProvider) ProviderID() string     { return p.ID }
func (p *TagProvider) ProviderID() string      { return p.ID }
func (p *SectionProvider) ProviderID() string  { return p.ID }
func (p *FileNameProvider) ProviderID() string { return p.ID }
func (p *TimeProvider) ProviderID() string     { return p.ID }
func (p *InheritProvider) ProviderID() string  { return p.ID }
func (p *UnknownProvider) ProviderID() string  { return p.ID }

func (*TextProvider) valueProvider()     {}
func (*TagProvider) valueProvider()      {}
func (*SectionProvider) valueProvider()  {}
func (*FileNameProvider) valueProvider() {}
func (*TimeProvider) valueProvider()     {}
func (*InheritProvider) valueProvider()  {}
func (*UnknownProvider) valueProvider()  {}

// NewFileNameProvider compiles a file name provider.
func NewFileNameProvider(id, pattern string) (*FileNameProvider, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ConfigError{Kind: ProviderFileName, Err: fmt.Errorf("invalid pattern %q: %w", pattern, err)}
	}
	return &FileNameProvider{ID: id, Pattern: pattern, re: re}, nil
}

// Supplier is either a literal string or a provider.
type Supplier struct {
	Literal  string
	Provider ValueProvider
}

// Literal returns a supplier yielding s.
func Literal(s string) Supplier { return Supplier{Literal: s} }

// Provided returns a supplier backed by p.
func Provided(p ValueProvider) Supplier { return Supplier{Provider: p} }

// UnmarshalJSON accepts a JSON string or a provider object.
func (s *Supplier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s.Provider = nil
		return json.Unmarshal(data, &s.Literal)
	}
	p, err := ParseProvider(data)
	if err != nil {
		return err
	}
	s.Literal, s.Provider = "", p
	return nil
}

// ProviderSupplier is the provider/providers pair carried by rules.
// Setting both is rejected by InjectProviders.
type ProviderSupplier struct {
	Provider  ValueProvider
	Providers []ValueProvider
}

// Resolve computes the value of a supplier.
func Resolve(s Supplier, ctx *Context, session *Session) (string, error) {
	if s.Provider == nil {
		return s.Literal, nil
	}
	return ResolveProvider(s.Provider, ctx, session)
}

// ResolveProvider computes the value of a single provider.
func ResolveProvider(p ValueProvider, ctx *Context, session *Session) (string, error) {
	switch p := p.(type) {
	case *TextProvider:
		return p.Value, nil
	case *TagProvider:
		return ctx.Tags[p.Tag], nil
	case *SectionProvider:
		if p.Variant == SectionVariantName {
			return ctx.SectionName, nil
		}
		return strconv.Itoa(ctx.Section - p.Offset), nil
	case *FileNameProvider:
		if p.re == nil {
			return "", nil
		}
		return p.re.FindString(ctx.FileName), nil
	case *TimeProvider:
		return p.resolve(ctx)
	case *InheritProvider:
		target, ok := session.Provider(p.ID)
		if !ok {
			return "", &ConfigError{
				Kind: ProviderInherit,
				Err:  fmt.Errorf("%w: no provider registered under %q", domain.ErrNotFound, p.ID),
			}
		}
		if !session.enter(p.ID) {
			return "", fmt.Errorf("%w: %s", domain.ErrProviderCycle, session.chain(p.ID))
		}
		defer session.leave()
		return ResolveProvider(target, ctx, session)
	case *UnknownProvider:
		return "", invalidType("provider", p.Kind)
	default:
		return "", invalidType("provider", "")
	}
}

// ResolveAll resolves providers in order.
func ResolveAll(providers []ValueProvider, ctx *Context, session *Session) ([]string, error) {
	values := make([]string, 0, len(providers))
	for _, p := range providers {
		v, err := ResolveProvider(p, ctx, session)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

var errProviderConflict = errors.New("provider and providers are mutually exclusive")

// InjectProviders registers the supplier's providers into session: by id
// when set, otherwise as the anonymous provider.
func InjectProviders(s ProviderSupplier, session *Session) error {
	if s.Provider != nil && s.Providers != nil {
		return &ConfigError{Err: errProviderConflict}
	}
	if s.Provider != nil {
		session.register(s.Provider)
	}
	for _, p := range s.Providers {
		session.register(p)
	}
	return nil
}

type providerJSON struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	Value          string    `json:"value"`
	Tag            string    `json:"tag"`
	Pattern        string    `json:"pattern"`
	Variant        string    `json:"variant"`
	Offset         int       `json:"offset"`
	Format         string    `json:"format"`
	Duration       *Duration `json:"duration"`
	DurationOffset *int      `json:"durationOffset"`
	DurationTag    string    `json:"durationTag"`
}

// ParseProvider decodes a provider object. Null decodes to nil.
func ParseProvider(data []byte) (ValueProvider, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw providerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode provider: %w", err)
	}

	switch raw.Type {
	case ProviderText:
		return &TextProvider{ID: raw.ID, Value: raw.Value}, nil
	case ProviderTag:
		return &TagProvider{ID: raw.ID, Tag: raw.Tag}, nil
	case ProviderSection:
		return &SectionProvider{ID: raw.ID, Variant: raw.Variant, Offset: raw.Offset}, nil
	case ProviderFileName:
		return NewFileNameProvider(raw.ID, raw.Pattern)
	case ProviderTime:
		return &TimeProvider{
			ID:             raw.ID,
			Format:         raw.Format,
			Value:          raw.Value,
			Duration:       raw.Duration,
			DurationOffset: raw.DurationOffset,
			DurationTag:    raw.DurationTag,
		}, nil
	case ProviderInherit:
		return &InheritProvider{ID: raw.ID}, nil
	default:
		return &UnknownProvider{ID: raw.ID, Kind: raw.Type}, nil
	}
}

func parseProviderSupplier(provider json.RawMessage, providers []json.RawMessage) (ProviderSupplier, error) {
	var s ProviderSupplier
	p, err := ParseProvider(provider)
	if err != nil {
		return s, err
	}
	s.Provider = p
	if providers != nil {
		s.Providers = make([]ValueProvider, 0, len(providers))
		for _, raw := range providers {
			p, err := ParseProvider(raw)
			if err != nil {
				return s, err
			}
			if p != nil {
				s.Providers = append(s.Providers, p)
			}
		}
	}
	return s, nil
}
