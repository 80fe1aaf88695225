package episode

import (
	"fmt"
	"strconv"
	"strings"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// Query identifies one episode of one series.
type Query struct {
	Identifier string
	Season     int
	Episode    int
}

func (q Query) String() string {
	return fmt.Sprintf("%s S%dE%d", q.Identifier, q.Season, q.Episode)
}

// Ref is a Query resolved to its identifier scheme. It is either a
// DirectEpisode or a SeasonedEpisode.
type Ref interface {
	isRef()
	ID() string
}

// DirectEpisode is an episode whose number is already absolute.
type DirectEpisode struct {
	Identifier string
	Episode    int
}

// SeasonedEpisode is an episode numbered within its season.
type SeasonedEpisode struct {
	Identifier string
	Season     int
	Episode    int
}

func (DirectEpisode) isRef()   {}
func (SeasonedEpisode) isRef() {}

func (d DirectEpisode) ID() string   { return d.Identifier }
func (s SeasonedEpisode) ID() string { return s.Identifier }

// ParseRef picks the scheme from the identifier prefix.
func ParseRef(q Query) Ref {
	if metadata.IsKitsu(q.Identifier) {
		return DirectEpisode{Identifier: q.Identifier, Episode: q.Episode}
	}
	return SeasonedEpisode{Identifier: q.Identifier, Season: q.Season, Episode: q.Episode}
}

// ParseID parses an addon video id. Accepted forms are
// <series>:<season>:<episode> (tt0409591:1:26), kitsu:<id>:<episode> and
// kitsu:<id>:<season>:<episode>. A kitsu id without a season gets season 1.
func ParseID(id string) (Query, error) {
	parts := strings.Split(strings.TrimSpace(id), ":")
	invalid := func(reason string) (Query, error) {
		return Query{}, services.Wrap(services.ErrValidation, "episode", "parse id", fmt.Sprintf("%q: %s", id, reason), nil)
	}

	if parts[0] == strings.TrimSuffix(metadata.KitsuPrefix, ":") {
		if len(parts) < 3 || len(parts) > 4 || parts[1] == "" {
			return invalid("expected kitsu:<id>:<episode>")
		}
		q := Query{Identifier: metadata.KitsuPrefix + parts[1], Season: 1}
		nums := parts[2:]
		if len(nums) == 2 {
			season, err := strconv.Atoi(nums[0])
			if err != nil {
				return invalid("season is not a number")
			}
			q.Season = season
			nums = nums[1:]
		}
		episode, err := strconv.Atoi(nums[0])
		if err != nil {
			return invalid("episode is not a number")
		}
		q.Episode = episode
		return q, nil
	}

	if len(parts) != 3 || parts[0] == "" {
		return invalid("expected <series>:<season>:<episode>")
	}
	season, err := strconv.Atoi(parts[1])
	if err != nil {
		return invalid("season is not a number")
	}
	episode, err := strconv.Atoi(parts[2])
	if err != nil {
		return invalid("episode is not a number")
	}
	return Query{Identifier: parts[0], Season: season, Episode: episode}, nil
}
