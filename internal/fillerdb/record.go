package fillerdb

import (
	"encoding/json"
	"slices"
)

// EpisodeSet is a set of absolute episode numbers.
type EpisodeSet map[int]struct{}

// NewEpisodeSet builds a set from the given episode numbers.
func NewEpisodeSet(episodes ...int) EpisodeSet {
	set := make(EpisodeSet, len(episodes))
	for _, ep := range episodes {
		set[ep] = struct{}{}
	}
	return set
}

// Contains reports whether episode is a member.
func (s EpisodeSet) Contains(episode int) bool {
	_, ok := s[episode]
	return ok
}

// Sorted returns the members in ascending order.
func (s EpisodeSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for ep := range s {
		out = append(out, ep)
	}
	slices.Sort(out)
	return out
}

// Record is one anime entry of the filler database.
type Record struct {
	Name   string
	Filler EpisodeSet
	Mixed  EpisodeSet
}

type recordJSON struct {
	Name   string `json:"name"`
	Filler []int  `json:"filler"`
	Mixed  []int  `json:"mixed"`
}

// UnmarshalJSON decodes the {name, filler, mixed} file form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.Filler = NewEpisodeSet(raw.Filler...)
	r.Mixed = NewEpisodeSet(raw.Mixed...)
	return nil
}

// MarshalJSON encodes the record with sorted episode lists.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Name:   r.Name,
		Filler: r.Filler.Sorted(),
		Mixed:  r.Mixed.Sorted(),
	})
}
