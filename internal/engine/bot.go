package engine

import (
	"fmt"
	"math/rand/v2"
	"unicode/utf8"
)

// BotStrategy decides what a bot says on its turn and whom it votes for.
type BotStrategy interface {
	Hint(role Role, word string) string
	Vote(candidates []string, self string, role Role, imposterID string) string
}

var botNames = []string{"Bot Alex", "Bot Kim", "Bot Sam", "Bot Robin", "Bot Charlie", "Bot Luca", "Bot Mika"}

var hintTemplates = []func(word string) string{
	func(w string) string {
		r, _ := utf8.DecodeRuneInString(w)
		return fmt.Sprintf("Mein Wort fängt mit %q an.", string(r))
	},
	func(w string) string { return fmt.Sprintf("Mein Wort hat %d Buchstaben.", utf8.RuneCountInString(w)) },
	func(string) string { return "Das sieht man eigentlich jeden Tag." },
	func(string) string { return "Damit verbinde ich etwas Schönes." },
	func(string) string { return "Kennt wirklich jeder, würde ich sagen." },
}

var vagueHints = []string{
	"Hmm, schwer zu beschreiben.",
	"Da fällt mir spontan einiges ein.",
	"Ich sag mal: ziemlich alltäglich.",
}

// TemplateBot fills hint templates with its word. The imposter only gets
// vague lines. Crew bots spot the imposter with probability GuessRate.
type TemplateBot struct {
	GuessRate float64
	rng       *rand.Rand
}

func NewTemplateBot(rng *rand.Rand) *TemplateBot {
	return &TemplateBot{GuessRate: 0.35, rng: rng}
}

func (b *TemplateBot) Hint(role Role, word string) string {
	if role == RoleImposter || word == "" {
		return vagueHints[b.rng.IntN(len(vagueHints))]
	}
	return hintTemplates[b.rng.IntN(len(hintTemplates))](word)
}

func (b *TemplateBot) Vote(candidates []string, self string, role Role, imposterID string) string {
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != self {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	if role == RoleCrew && imposterID != "" && imposterID != self && b.rng.Float64() < b.GuessRate {
		for _, c := range pool {
			if c == imposterID {
				return c
			}
		}
	}
	return pool[b.rng.IntN(len(pool))]
}
