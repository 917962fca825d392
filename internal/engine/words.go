package engine

import "math/rand/v2"

// WordPair is the crew word and the related hint the imposter sees.
type WordPair struct {
	Crew     string `json:"crew"`
	Imposter string `json:"imposter"`
}

var WordPairs = []WordPair{
	{"Pizza", "Burger"},
	{"Hund", "Katze"},
	{"Auto", "Motorrad"},
	{"Sommer", "Winter"},
	{"Berg", "Tal"},
	{"Fußball", "Basketball"},
	{"Lehrer", "Schüler"},
	{"Computer", "Tablet"},
	{"Zahnbürste", "Zahnpasta"},
	{"Banane", "Apfel"},
	{"Stadt", "Dorf"},
	{"Lampe", "Kerze"},
	{"Kuh", "Schaf"},
	{"Brot", "Käse"},
	{"Meer", "See"},
	{"Garten", "Wiese"},
	{"Kamera", "Handy"},
	{"Kino", "Theater"},
	{"Tisch", "Stuhl"},
	{"Regen", "Schnee"},
}

// pickPair draws uniformly from pairs, avoiding an immediate repeat of prev.
func pickPair(rng *rand.Rand, pairs []WordPair, prev WordPair) WordPair {
	p := pairs[rng.IntN(len(pairs))]
	if p == prev && len(pairs) > 1 {
		p = pairs[rng.IntN(len(pairs))]
	}
	return p
}
