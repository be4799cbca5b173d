package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDemandScore(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		author   string
		expected float64
	}{
		{"missing title", "", "", 1},
		{"whitespace title", "   ", "J.K. Rowling", 1},
		{"known title substring", "Harry Potter and the Chamber of Secrets", "J.K. Rowling", 3},
		{"known title any case", "DIARY OF A WIMPY KID: RODRICK RULES", "", 3},
		{"trending genre keyword", "The Last Dragon of Avalon", "", 2},
		{"genre keyword phrase", "My First Graphic Novel", "", 2},
		{"known title beats genre", "The Hobbit: Magic Edition", "", 3},
		{"no match", "A History of Municipal Drainage", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateDemandScore(tt.title, tt.author))
		})
	}
}

func TestCuratedDemandOverrides(t *testing.T) {
	d := NewCuratedDemand([]string{"  Local Legends "}, []string{"Knitting"})

	assert.Equal(t, 3.0, d.DemandScore("local legends vol. 2", ""))
	assert.Equal(t, 2.0, d.DemandScore("Knitting for Beginners", ""))
	// the defaults are replaced, not extended
	assert.Equal(t, 1.0, d.DemandScore("Harry Potter", ""))
}

func TestCuratedDemandDefaults(t *testing.T) {
	d := NewCuratedDemand(nil, nil)
	assert.Len(t, d.Titles, len(DefaultPopularTitles))
	assert.Len(t, d.Genres, len(DefaultTrendingGenres))
}

func TestCalculateRarityScore(t *testing.T) {
	assert.Equal(t, 0.0, CalculateRarityScore("", ""))
	assert.Equal(t, 0.0, CalculateRarityScore("First Folio", "William Shakespeare"))
}
