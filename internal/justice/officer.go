// Package justice looks up company officers in the Czech court registry
// (or.justice.cz). The registry has no API; officers are scraped from the
// HTML extract of a company.
package justice

import "encoding/json"

// Role is the function an officer holds in the company.
type Role string

const (
	RoleManagingOfficer Role = "jednatel"
	RolePartner         Role = "společník"
)

// Officer is one person listed in the extract. Fields the page does not
// show are empty.
type Officer struct {
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	BirthDate string `json:"birth_date,omitempty"`
	Address   string `json:"address,omitempty"`
	Since     string `json:"since,omitempty"` // start of the function or membership
	Share     string `json:"share,omitempty"` // partners only
}

// OfficerSet is an insertion-ordered collection keyed by officer name. Put
// with a name already present replaces that entry in place: the last value
// wins and the first position is kept.
type OfficerSet struct {
	order  []string
	byName map[string]Officer
}

// NewOfficerSet returns an empty set.
func NewOfficerSet() *OfficerSet {
	return &OfficerSet{byName: map[string]Officer{}}
}

// Put adds or replaces o.
func (s *OfficerSet) Put(o Officer) {
	if _, ok := s.byName[o.Name]; !ok {
		s.order = append(s.order, o.Name)
	}
	s.byName[o.Name] = o
}

// Get returns the officer stored under name.
func (s *OfficerSet) Get(name string) (Officer, bool) {
	if s == nil {
		return Officer{}, false
	}
	o, ok := s.byName[name]
	return o, ok
}

// Len returns the number of distinct names.
func (s *OfficerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// All returns the officers in insertion order.
func (s *OfficerSet) All() []Officer {
	if s == nil {
		return nil
	}
	out := make([]Officer, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// MarshalJSON encodes the set as an ordered array.
func (s *OfficerSet) MarshalJSON() ([]byte, error) {
	all := s.All()
	if all == nil {
		all = []Officer{}
	}
	return json.Marshal(all)
}
