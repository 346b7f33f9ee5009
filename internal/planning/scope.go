package planning

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// Scope is a chain of type refinements tracking the set of possible
// runtime object types at a selection point. Each link carries the
// composite type of the refinement and, when the refinement came from a
// fragment, the directives attached to it. Scopes are immutable: Refine
// returns a new scope sharing the tail.
type Scope struct {
	ctx        *Context
	parent     *som.Type
	directives language.DirectiveList
	prev       *Scope

	possible       []*som.Type
	possibleCached bool
}

// NewScope creates a root scope over a composite type.
func NewScope(ctx *Context, t *som.Type) *Scope {
	return &Scope{ctx: ctx, parent: t}
}

// Parent returns the most refined composite type of the scope.
func (s *Scope) Parent() *som.Type { return s.parent }

// Directives returns the directives attached to the newest refinement.
func (s *Scope) Directives() language.DirectiveList { return s.directives }

// Refine pushes a refinement by t. An empty directive list counts as
// absent. A directive-less refinement that does not strictly narrow the
// scope returns the scope unchanged; otherwise older directive-less links
// made redundant by t are pruned from the chain.
func (s *Scope) Refine(t *som.Type, directives language.DirectiveList) *Scope {
	if len(directives) == 0 {
		directives = nil
	}
	if directives == nil && !s.strictlyRefinedBy(t) {
		return s
	}

	// Rebuild the tail without the links t subsumes.
	var kept []*Scope
	for link := s; link != nil; link = link.prev {
		if link.directives == nil && isSubType(t, link.parent) {
			continue
		}
		kept = append(kept, link)
	}
	var tail *Scope
	for i := len(kept) - 1; i >= 0; i-- {
		link := kept[i]
		if link.prev == tail {
			tail = link
			continue
		}
		tail = &Scope{ctx: link.ctx, parent: link.parent, directives: link.directives, prev: tail}
	}
	return &Scope{ctx: s.ctx, parent: t, directives: directives, prev: tail}
}

// strictlyRefinedBy reports whether t narrows the scope: it does not when
// some type already in the chain is a sub-type of t.
func (s *Scope) strictlyRefinedBy(t *som.Type) bool {
	for link := s; link != nil; link = link.prev {
		if isSubType(link.parent, t) {
			return false
		}
	}
	return true
}

// isSubType reports whether a is a sub-type of b: the same type, or an
// object member of union b.
func isSubType(a, b *som.Type) bool {
	if a == b {
		return true
	}
	if b.Kind() == som.TypeKindUnion && a.Kind() == som.TypeKindObject {
		for _, m := range b.Members() {
			if m == a {
				return true
			}
		}
	}
	return false
}

// PossibleRuntimeTypes returns the intersection of the possible types of
// every refinement in the chain. The result is memoized.
func (s *Scope) PossibleRuntimeTypes() []*som.Type {
	if s.possibleCached {
		return s.possible
	}
	possible := s.ctx.PossibleTypes(s.parent)
	for link := s.prev; link != nil; link = link.prev {
		linkTypes := s.ctx.PossibleTypes(link.parent)
		var narrowed []*som.Type
		for _, t := range possible {
			for _, lt := range linkTypes {
				if t == lt {
					narrowed = append(narrowed, t)
					break
				}
			}
		}
		possible = narrowed
	}
	s.possible = possible
	s.possibleCached = true
	return possible
}

// IdentityKey returns a canonical string usable as a map key: the parent
// type name, the ordered possible runtime type names, and the
// canonicalized directives of the whole chain.
func (s *Scope) IdentityKey() string {
	var b strings.Builder
	b.WriteString(s.parent.Name())
	b.WriteString("|")
	names := make([]string, 0, len(s.PossibleRuntimeTypes()))
	for _, t := range s.PossibleRuntimeTypes() {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	b.WriteString(strings.Join(names, ","))
	for link := s; link != nil; link = link.prev {
		for _, d := range link.directives {
			b.WriteString("|")
			b.WriteString(canonicalDirective(d))
		}
	}
	return b.String()
}

// Equals walks both chains in lockstep comparing parent types and
// directive lists.
func (s *Scope) Equals(other *Scope) bool {
	a, b := s, other
	for a != nil && b != nil {
		if a.parent != b.parent {
			return false
		}
		if !directiveListEqual(a.directives, b.directives) {
			return false
		}
		a, b = a.prev, b.prev
	}
	return a == nil && b == nil
}

// Hash combines the parent type name hash with a symmetric hash over the
// chain's directive strings, truncated to 32 bits.
func (s *Scope) Hash() uint32 {
	h := xxhash.Sum64String(s.parent.Name())
	var dh uint64
	for link := s; link != nil; link = link.prev {
		for _, d := range link.directives {
			dh ^= xxhash.Sum64String(canonicalDirective(d))
		}
	}
	return uint32(h ^ dh)
}

// canonicalDirective renders an applied directive with its arguments
// sorted by name so that @f(a: 1, b: 2) and @f(b: 2, a: 1) compare equal.
func canonicalDirective(d *language.Directive) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(d.Name)
	if len(d.Arguments) > 0 {
		parts := make([]string, len(d.Arguments))
		for i, a := range d.Arguments {
			parts[i] = a.Name + ": " + a.Value.String()
		}
		sort.Strings(parts)
		b.WriteString("(")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// directiveListEqual reports element-wise equality of two directive
// lists; element equality compares names and argument maps.
func directiveListEqual(a, b language.DirectiveList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if canonicalDirective(a[i]) != canonicalDirective(b[i]) {
			return false
		}
	}
	return true
}
