package engine

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    GameMode
		wantErr bool
	}{
		{"", ModeLocal, false},
		{"local", ModeLocal, false},
		{" Single ", ModeSingle, false},
		{"ki-bot", ModeBot, false},
		{"online", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrWrongMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateName(t *testing.T) {
	long := strings.Repeat("ä", 30)
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"trimmed", "  Lena ", "Lena", false},
		{"inner whitespace collapsed", "Anna   Lena", "Anna Lena", false},
		{"empty", "", "", true},
		{"blank", " \t ", "", true},
		{"truncated by rune", long, strings.Repeat("ä", MaxNameLength), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateName(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				assert.Equal(t, DefaultName, NormalizeName(tc.in))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"Gast": true, "Gast (2)": true}
	got := UniqueName("Gast", func(n string) bool { return taken[n] })
	assert.Equal(t, "Gast (3)", got)
	assert.Equal(t, "Mia", UniqueName("Mia", func(n string) bool { return taken[n] }))
}

func TestTally(t *testing.T) {
	cases := []struct {
		name    string
		ballots []Ballot
		ejected string
		tie     bool
	}{
		{"no ballots", nil, "", false},
		{"clear majority", []Ballot{{"a", "c"}, {"b", "c"}, {"c", "a"}}, "c", false},
		{
			// b and c both end on 2 votes; c got there first
			name:    "tie goes to first to reach the maximum",
			ballots: []Ballot{{"a", "b"}, {"d", "c"}, {"e", "c"}, {"f", "b"}},
			ejected: "c",
			tie:     true,
		},
		{"single vote each, first cast wins", []Ballot{{"a", "b"}, {"b", "a"}}, "b", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Tally(tc.ballots)
			assert.Equal(t, tc.ejected, res.Ejected)
			assert.Equal(t, tc.tie, res.Tie)
		})
	}
}

func TestTemplateBot_NeverVotesSelf(t *testing.T) {
	bot := NewTemplateBot(rand.New(rand.NewPCG(7, 7)))
	candidates := []string{"bot-1", "a", "b"}
	for i := 0; i < 200; i++ {
		got := bot.Vote(candidates, "bot-1", RoleCrew, "a")
		assert.NotEqual(t, "bot-1", got)
		assert.Contains(t, candidates, got)
	}
	assert.Empty(t, bot.Vote([]string{"bot-1"}, "bot-1", RoleImposter, "bot-1"))
}

func TestTemplateBot_AlwaysGuessesWithFullRate(t *testing.T) {
	bot := NewTemplateBot(rand.New(rand.NewPCG(3, 4)))
	bot.GuessRate = 1
	assert.Equal(t, "imp", bot.Vote([]string{"a", "imp", "b"}, "bot-1", RoleCrew, "imp"))
}

func TestTemplateBot_ImposterHintNeverLeaksWord(t *testing.T) {
	bot := NewTemplateBot(rand.New(rand.NewPCG(5, 6)))
	for i := 0; i < 50; i++ {
		assert.NotContains(t, bot.Hint(RoleImposter, "Burger"), "Burger")
		assert.NotEmpty(t, bot.Hint(RoleCrew, "Pizza"))
	}
}
