package rules

import "strings"

// NoSection is the section index of a resource without section data.
const NoSection = -1

// Context is the per-resource input of every evaluation.
// Tags and Classification are mutated in place by ApplyClassifications.
type Context struct {
	FileName         string
	Section          int
	SectionName      string
	TimeCreation     *int64
	TimeModification *int64

	// Tags maps tag names to values.
	Tags map[string]string

	// Classification maps tag names to the rule that assigned them.
	Classification map[string]string

	Module string
}

// NewContext returns an empty context for the given module.
func NewContext(module string) *Context {
	return &Context{
		Section:        NoSection,
		Tags:           make(map[string]string),
		Classification: make(map[string]string),
		Module:         module,
	}
}

// Session scopes value providers registered by InjectProviders during one
// top-level evaluation call. It is not safe for concurrent use.
type Session struct {
	provider  ValueProvider
	providers map[string]ValueProvider

	// resolving holds the provider keys currently being inherited through.
	resolving []string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{providers: make(map[string]ValueProvider)}
}

// Provider returns the provider registered under id, or the anonymous
// provider when id is empty.
func (s *Session) Provider(id string) (ValueProvider, bool) {
	if id == "" {
		return s.provider, s.provider != nil
	}
	p, ok := s.providers[id]
	return p, ok
}

func (s *Session) register(p ValueProvider) {
	if id := p.ProviderID(); id != "" {
		s.providers[id] = p
		return
	}
	s.provider = p
}

// enter marks key as being resolved. It returns false if key is already on
// the inheritance chain.
func (s *Session) enter(key string) bool {
	for _, k := range s.resolving {
		if k == key {
			return false
		}
	}
	s.resolving = append(s.resolving, key)
	return true
}

func (s *Session) leave() {
	s.resolving = s.resolving[:len(s.resolving)-1]
}

func (s *Session) chain(key string) string {
	names := make([]string, 0, len(s.resolving)+1)
	for _, k := range append(append([]string(nil), s.resolving...), key) {
		if k == "" {
			k = "<anonymous>"
		}
		names = append(names, k)
	}
	return strings.Join(names, " -> ")
}
