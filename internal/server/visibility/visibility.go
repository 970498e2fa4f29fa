// Package visibility decides whose content a viewer may see: their own and
// that of every partner they are bound to.
package visibility

import "sort"

// Set is an immutable set of author usernames.
type Set struct {
	viewer  string
	members map[string]struct{}
}

// Authors returns {viewer} ∪ bound. An empty viewer yields an empty set.
func Authors(viewer string, bound []string) Set {
	s := Set{viewer: viewer, members: make(map[string]struct{}, len(bound)+1)}
	if viewer == "" {
		return s
	}
	s.members[viewer] = struct{}{}
	for _, b := range bound {
		if b != "" {
			s.members[b] = struct{}{}
		}
	}
	return s
}

func (s Set) Contains(author string) bool {
	_, ok := s.members[author]
	return ok
}

// Viewer is the username the set was built for.
func (s Set) Viewer() string {
	return s.viewer
}

// IsPartner reports whether author is visible but not the viewer.
func (s Set) IsPartner(author string) bool {
	return author != s.viewer && s.Contains(author)
}

func (s Set) Len() int {
	return len(s.members)
}

// Members returns the sorted usernames.
func (s Set) Members() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
