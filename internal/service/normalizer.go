package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yourusername/mat-rankings/internal/models"
)

var (
	weightUnits = regexp.MustCompile(`(?i)\s*(lbs?\.?|pounds|#)$`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// RecordNormalizer brings parsed records to one canonical spelling so the
// same wrestler resolves to the same athlete however a site capitalizes them
type RecordNormalizer struct {
	schoolAliases map[string]string // upper-case variant -> canonical name
	title         cases.Caser
}

// NewRecordNormalizer creates a normalizer. Alias keys are matched case-insensitively.
func NewRecordNormalizer(schoolAliases map[string]string) *RecordNormalizer {
	aliases := make(map[string]string, len(schoolAliases))
	for variant, canonical := range schoolAliases {
		aliases[strings.ToUpper(collapse(variant))] = collapse(canonical)
	}
	return &RecordNormalizer{
		schoolAliases: aliases,
		title:         cases.Title(language.English),
	}
}

// Normalize rewrites the record in place
func (n *RecordNormalizer) Normalize(record *models.MatchRecord) {
	if record == nil {
		return
	}
	record.WeightClass = NormalizeWeightClass(record.WeightClass)
	n.normalizeWrestler(&record.Winner)
	n.normalizeWrestler(&record.Loser)
}

func (n *RecordNormalizer) normalizeWrestler(w *models.Wrestler) {
	w.FirstName = n.normalizeName(w.FirstName)
	w.LastName = n.normalizeName(w.LastName)
	w.School = n.normalizeSchool(w.School)
}

// normalizeName title-cases names written in a single case. Mixed case such
// as "McDonald" is kept.
func (n *RecordNormalizer) normalizeName(name string) string {
	name = collapse(name)
	if name == "" || name == models.UnknownName {
		return name
	}
	if isSingleCase(name) {
		return n.title.String(name)
	}
	return name
}

func (n *RecordNormalizer) normalizeSchool(school string) string {
	school = collapse(school)
	if canonical, ok := n.schoolAliases[strings.ToUpper(school)]; ok {
		return canonical
	}
	return school
}

// NormalizeWeightClass strips units, so "145 lbs" and "145" name the same class
func NormalizeWeightClass(weightClass string) string {
	return strings.TrimSpace(weightUnits.ReplaceAllString(collapse(weightClass), ""))
}

func collapse(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func isSingleCase(s string) bool {
	hasUpper, hasLower := false, false
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasUpper = true
		} else if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return !(hasUpper && hasLower)
}
