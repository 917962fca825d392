package engine

// Ballot is one vote, kept in the order it was cast.
type Ballot struct {
	VoterID  string
	TargetID string
}

type TallyResult struct {
	Ejected string
	Counts  map[string]int
	Tie     bool // another candidate also reached the maximum
}

// Tally counts ballots in cast order. The leader only changes when a count
// strictly exceeds the current best, so on a tie the candidate who reached
// the final maximum first is ejected. No ballots ejects nobody.
func Tally(ballots []Ballot) TallyResult {
	res := TallyResult{Counts: make(map[string]int, len(ballots))}
	best := 0
	for _, b := range ballots {
		res.Counts[b.TargetID]++
		if n := res.Counts[b.TargetID]; n > best {
			best = n
			res.Ejected = b.TargetID
		}
	}
	for id, n := range res.Counts {
		if n == best && id != res.Ejected {
			res.Tie = true
			break
		}
	}
	return res
}
