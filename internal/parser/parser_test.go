package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mat-rankings/internal/models"
)

func TestParseFallExample(t *testing.T) {
	date := time.Date(2024, time.December, 7, 0, 0, 0, 0, time.UTC)

	rec := Parse("John Smith (Utah High) over Mike Johnson (Utah High) (Fall 1:30)", "120", &date)
	require.NotNil(t, rec)

	assert.Equal(t, "John", rec.Winner.FirstName)
	assert.Equal(t, "Smith", rec.Winner.LastName)
	assert.Equal(t, "Utah High", rec.Winner.School)
	assert.Equal(t, "Mike", rec.Loser.FirstName)
	assert.Equal(t, "Johnson", rec.Loser.LastName)
	assert.Equal(t, "Utah High", rec.Loser.School)
	assert.Equal(t, models.ResultFall, rec.Result.Type)
	assert.Equal(t, "1:30", rec.Result.Time)
	assert.Equal(t, "120", rec.WeightClass)
	assert.Equal(t, &date, rec.EventDate)
	assert.Empty(t, rec.TournamentRound)
}

func TestParseRoundPrefix(t *testing.T) {
	rec := Parse("Champ. Round 1 - Tyler Brooks (Box Elder) over Sam Lee (Logan) (Dec 5-3)", "138", nil)
	require.NotNil(t, rec)

	assert.Equal(t, "Champ. Round 1", rec.TournamentRound)
	assert.Equal(t, "Tyler", rec.Winner.FirstName)
	assert.Equal(t, "Box Elder", rec.Winner.School)
	assert.Equal(t, models.ResultDecision, rec.Result.Type)
	assert.Equal(t, "5-3", rec.Result.Score)
}

func TestParseLooseShape(t *testing.T) {
	rec := Parse("Tyler Brooks (Box Elder) over Sam Lee (Logan) MD 12-3", "138", nil)
	require.NotNil(t, rec)

	assert.Equal(t, models.ResultMajorDecision, rec.Result.Type)
	assert.Equal(t, "12-3", rec.Result.Score)
	assert.Equal(t, "Lee", rec.Loser.LastName)
}

func TestParseMultiWordLastName(t *testing.T) {
	rec := Parse("Juan de la Cruz (Provo) over Ben Ng (Orem) (TF 17-2 4:10)", "152", nil)
	require.NotNil(t, rec)

	assert.Equal(t, "Juan", rec.Winner.FirstName)
	assert.Equal(t, "de la Cruz", rec.Winner.LastName)
	assert.Equal(t, models.ResultTechFall, rec.Result.Type)
	assert.Equal(t, "17-2", rec.Result.Score)
	assert.Equal(t, "4:10", rec.Result.Time)
}

func TestParseMissingNamePartBecomesUnknown(t *testing.T) {
	rec := Parse("Madonna (Provo) over Ben Ng (Orem) (Dec 3-1)", "152", nil)
	require.NotNil(t, rec)

	assert.Equal(t, "Madonna", rec.Winner.FirstName)
	assert.Equal(t, models.UnknownName, rec.Winner.LastName)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "too short", text: "a over b"},
		{name: "bye", text: "John Smith (Utah High) received a bye () (Bye)"},
		{name: "no schools", text: "John Smith over Mike Johnson (Fall 1:30)"},
		{name: "header row", text: "Championship Bracket - 120 lbs"},
		{name: "missing result", text: "John Smith (Utah High) over Mike Johnson (Utah High)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, Parse(tt.text, "120", nil))
			})
		})
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		token     string
		wantType  models.ResultType
		wantScore string
		wantTime  string
	}{
		{token: "Fall 1:30", wantType: models.ResultFall, wantTime: "1:30"},
		{token: "FALL 0:45", wantType: models.ResultFall, wantTime: "0:45"},
		{token: "TF 17-2 4:10", wantType: models.ResultTechFall, wantScore: "17-2", wantTime: "4:10"},
		{token: "TF-1.5 5:18 (18-3)", wantType: models.ResultTechFall, wantScore: "18-3", wantTime: "5:18"},
		{token: "MD 12-3", wantType: models.ResultMajorDecision, wantScore: "12-3"},
		{token: "Dec 5-3", wantType: models.ResultDecision, wantScore: "5-3"},
		{token: "DEC 7 - 6", wantType: models.ResultDecision, wantScore: "7-6"},
		{token: "Forfeit", wantType: models.ResultDecision},
		{token: "Medical DEFAULT", wantType: models.ResultDecision},
		{token: "SV-1 4-2", wantType: models.ResultDecision},
		{token: "Inj.", wantType: models.ResultDecision},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := ParseResult(tt.token)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.token, got.Raw)
			if tt.wantScore != "" {
				assert.Equal(t, tt.wantScore, got.Score)
			}
			assert.Equal(t, tt.wantTime, got.Time)
		})
	}
}

func TestParseForfeitHasNoScore(t *testing.T) {
	got := ParseResult("Forfeit")
	assert.Empty(t, got.Score)
	assert.Empty(t, got.Time)
}

func TestParseCollapsesWhitespace(t *testing.T) {
	rec := Parse("  John   Smith (Utah High)\n over  Mike Johnson (Utah High)   (Dec 4-2) ", "120", nil)
	require.NotNil(t, rec)
	assert.Equal(t, "Smith", rec.Winner.LastName)
	assert.Equal(t, "John Smith (Utah High) over Mike Johnson (Utah High) (Dec 4-2)", rec.RawText)
}

func TestValidate(t *testing.T) {
	valid := Parse("John Smith (Utah High) over Mike Johnson (Utah High) (Fall 1:30)", "120", nil)
	require.NotNil(t, valid)
	assert.NoError(t, Validate(valid))

	noWeight := *valid
	noWeight.WeightClass = ""
	assert.ErrorContains(t, Validate(&noWeight), "WeightClass")

	badType := *valid
	badType.Result.Type = "pin"
	assert.ErrorContains(t, Validate(&badType), "unknown result type")

	noName := *valid
	noName.Loser.FirstName = ""
	assert.Error(t, Validate(&noName))

	assert.Error(t, Validate(nil))
}
