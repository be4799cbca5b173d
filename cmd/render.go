package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/spf13/cobra"
)

// factorFlags are the donation context flags shared by score and assess
type factorFlags struct {
	title          string
	author         string
	firstTimeDonor bool
	themeEvent     bool
	newBook        bool
	craftMatch     bool
}

func (f *factorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Book title")
	cmd.Flags().StringVar(&f.author, "author", "", "Book author")
	cmd.Flags().BoolVar(&f.firstTimeDonor, "first-time-donor", false, "Donor has never donated before")
	cmd.Flags().BoolVar(&f.themeEvent, "theme-event", false, "Donation made during a theme event")
	cmd.Flags().BoolVar(&f.newBook, "new-book", false, "Book is new")
	cmd.Flags().BoolVar(&f.craftMatch, "craft-match", false, "Book matches a current craft program")
}

func (f *factorFlags) factors() credit.ContextualFactors {
	return credit.ContextualFactors{
		BookTitle:        strings.TrimSpace(f.title),
		BookAuthor:       strings.TrimSpace(f.author),
		IsFirstTimeDonor: f.firstTimeDonor,
		IsThemeEvent:     f.themeEvent,
		IsNewBook:        f.newBook,
		HasCraftMatch:    f.craftMatch,
	}
}

type assessmentStyles struct {
	header   lipgloss.Style
	accepted lipgloss.Style
	rejected lipgloss.Style
	warn     lipgloss.Style
	dim      lipgloss.Style
}

func newAssessmentStyles() assessmentStyles {
	return assessmentStyles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		accepted: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		rejected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// renderAssessment prints a credit assessment for a terminal
func renderAssessment(w io.Writer, v credit.VisualAssessment, a credit.CreditAssessment) {
	s := newAssessmentStyles()

	fmt.Fprintln(w, s.header.Render("Credit Assessment"))
	if v.Rejected() {
		fmt.Fprintln(w, s.rejected.Render("REJECTED")+s.dim.Render("  (incomplete or severely damaged)"))
	} else {
		fmt.Fprintln(w, s.accepted.Render(fmt.Sprintf("%.2f credits", a.FinalCredits)))
	}
	fmt.Fprintln(w)

	rows := []struct {
		name    string
		score   float64
		max     float64
		credits float64
	}{
		{"Condition", a.ConditionScore, credit.MaxConditionScore, a.CreditBreakdown.ConditionCredits},
		{"Demand", a.DemandScore, credit.MaxDemandScore, a.CreditBreakdown.DemandCredits},
		{"Rarity", a.RarityScore, credit.MaxRarityScore, a.CreditBreakdown.RarityCredits},
		{"Bonuses", a.BonusFactors, credit.MaxBonusFactors, a.CreditBreakdown.BonusCredits},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-10s %4.1f/%-3g %s\n", r.name, r.score, r.max, s.dim.Render(fmt.Sprintf("%.2f credits", r.credits)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.dim.Render(strings.TrimSpace(a.Justification)))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
