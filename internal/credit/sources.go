package credit

import "strings"

// DemandSource estimates market desirability for a title, in the range [0,3]
type DemandSource interface {
	DemandScore(title, author string) float64
}

// RaritySource estimates edition scarcity for a title, in the range [0,1]
type RaritySource interface {
	RarityScore(title, author string) float64
}

// DefaultPopularTitles are well-known titles that always score full demand
var DefaultPopularTitles = []string{
	"harry potter",
	"percy jackson",
	"the hunger games",
	"diary of a wimpy kid",
	"dog man",
	"the hobbit",
	"lord of the rings",
	"charlotte's web",
	"the very hungry caterpillar",
	"where the wild things are",
	"goodnight moon",
	"wonder",
	"matilda",
	"the cat in the hat",
	"to kill a mockingbird",
	"pride and prejudice",
	"the great gatsby",
}

// DefaultTrendingGenres are keywords that mark a title as in a popular genre
var DefaultTrendingGenres = []string{
	"dragon",
	"magic",
	"wizard",
	"mystery",
	"fantasy",
	"adventure",
	"dinosaur",
	"space",
	"graphic novel",
	"manga",
	"romance",
	"science",
}

// CuratedDemand is a placeholder demand signal built from fixed title and
// genre keyword lists. Matching is a case-insensitive substring test.
type CuratedDemand struct {
	Titles []string
	Genres []string
}

// NewCuratedDemand builds a CuratedDemand, falling back to the default lists
// when either argument is empty
func NewCuratedDemand(titles, genres []string) CuratedDemand {
	if len(titles) == 0 {
		titles = DefaultPopularTitles
	}
	if len(genres) == 0 {
		genres = DefaultTrendingGenres
	}
	return CuratedDemand{
		Titles: lowerAll(titles),
		Genres: lowerAll(genres),
	}
}

// DemandScore implements DemandSource
func (d CuratedDemand) DemandScore(title, _ string) float64 {
	if strings.TrimSpace(title) == "" {
		return 1
	}

	t := strings.ToLower(title)
	if containsAny(t, d.Titles) {
		return 3
	}
	if containsAny(t, d.Genres) {
		return 2
	}
	return 1
}

// NoRarity is the rarity placeholder; no edition is considered scarce yet
type NoRarity struct{}

// RarityScore implements RaritySource
func (NoRarity) RarityScore(_, _ string) float64 {
	return 0
}

var (
	defaultDemand = NewCuratedDemand(nil, nil)
	defaultRarity = NoRarity{}
)

// CalculateDemandScore scores demand with the default curated lists
func CalculateDemandScore(title, author string) float64 {
	return defaultDemand.DemandScore(title, author)
}

// CalculateRarityScore scores rarity with the default (always zero) policy
func CalculateRarityScore(title, author string) float64 {
	return defaultRarity.RarityScore(title, author)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
