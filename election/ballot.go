package election

// Election is one round of unanimous voting over a fixed candidate list.
type Election struct {
	engine *Engine

	name       string
	candidates []Candidate
	byName     map[string]int // candidate name -> index

	ballot  map[string]map[string]struct{} // voter id -> candidate ids
	counts  map[string]int                 // candidate id -> votes
	records int

	closed bool
	winner *Candidate
}

func (el *Election) Name() string {
	return el.name
}

func (el *Election) Closed() bool {
	return el.closed
}

// Winner returns the decided candidate, if any.
func (el *Election) Winner() (Candidate, bool) {
	if el.winner == nil {
		return Candidate{}, false
	}
	return *el.winner, true
}

func (el *Election) Candidates() []Candidate {
	out := make([]Candidate, len(el.candidates))
	copy(out, el.candidates)
	return out
}

func (el *Election) Candidate(name string) (*Candidate, error) {
	i, ok := el.byName[name]
	if !ok {
		return nil, ErrCandidateNotFound
	}
	return &el.candidates[i], nil
}

// Records returns the number of vote records currently held.
func (el *Election) Records() int {
	return el.records
}

// Submit toggles the vote of v for c and returns the updated results.
func (el *Election) Submit(v *Voter, c *Candidate) ([]Result, error) {
	if el.closed {
		return nil, ErrElectionClosed
	}
	if v == nil || el.engine.voters[v.ID] == nil {
		return nil, ErrVoterNotFound
	}
	if c == nil {
		return nil, ErrCandidateNotFound
	}
	if i, ok := el.byName[c.Name]; !ok || el.candidates[i].ID != c.ID {
		return nil, ErrCandidateNotFound
	}

	if el.has(v.ID, c.ID) {
		el.remove(v.ID, c.ID)
		el.engine.publish(el, el.progress())
		return el.Results(), nil
	}

	if el.engine.policy == SingleChoice {
		for cid := range el.ballot[v.ID] {
			el.remove(v.ID, cid)
		}
	}
	el.insert(v.ID, c.ID)

	results := el.Results()
	el.engine.publish(el, Event{
		Kind:     EventProgress,
		Election: el.name,
		Results:  results,
		Voters:   el.VoterStatus(),
	})

	el.engine.settle(el)

	return results, nil
}

// Results lists every candidate, in order, with its votes and share of the
// registered voters.
func (el *Election) Results() []Result {
	total := len(el.engine.voters)

	out := make([]Result, 0, len(el.candidates))
	for _, c := range el.candidates {
		n := el.counts[c.ID]

		var pct float64
		if total > 0 {
			pct = float64(n) / float64(total)
		}

		out = append(out, Result{
			Name:       c.Name,
			Votes:      n,
			Percentage: pct,
		})
	}
	return out
}

// VoterStatus reports, for every registered voter, whether it holds at least
// one vote in this election.
func (el *Election) VoterStatus() []VoterStatus {
	out := make([]VoterStatus, 0, len(el.engine.voterOrder))
	for _, id := range el.engine.voterOrder {
		v := el.engine.voters[id]
		out = append(out, VoterStatus{
			ID:       v.ID,
			Name:     v.Name,
			HasVoted: len(el.ballot[id]) > 0,
		})
	}
	return out
}

func (el *Election) progress() Event {
	return Event{
		Kind:     EventProgress,
		Election: el.name,
		Results:  el.Results(),
		Voters:   el.VoterStatus(),
	}
}

func (el *Election) has(voterID, candidateID string) bool {
	_, ok := el.ballot[voterID][candidateID]
	return ok
}

func (el *Election) insert(voterID, candidateID string) {
	votes, ok := el.ballot[voterID]
	if !ok {
		votes = make(map[string]struct{})
		el.ballot[voterID] = votes
	}
	votes[candidateID] = struct{}{}
	el.counts[candidateID]++
	el.records++
}

func (el *Election) remove(voterID, candidateID string) {
	votes := el.ballot[voterID]
	if _, ok := votes[candidateID]; !ok {
		return
	}
	delete(votes, candidateID)
	if len(votes) == 0 {
		delete(el.ballot, voterID)
	}
	el.counts[candidateID]--
	el.records--
}

// dropVoter removes every vote held by voterID and returns how many there were.
func (el *Election) dropVoter(voterID string) int {
	n := 0
	for cid := range el.ballot[voterID] {
		el.remove(voterID, cid)
		n++
	}
	return n
}

// unanimous returns the first candidate supported by every registered voter.
func (el *Election) unanimous() *Candidate {
	total := len(el.engine.voters)
	if total == 0 {
		return nil
	}
	for i := range el.candidates {
		if el.counts[el.candidates[i].ID] == total {
			return &el.candidates[i]
		}
	}
	return nil
}

// settle closes el if it has reached unanimity and publishes the decision.
func (e *Engine) settle(el *Election) {
	if el.closed {
		return
	}

	winner := el.unanimous()
	if winner == nil {
		return
	}
	if len(e.voters) == 0 {
		panic("election: unanimity reached with no registered voters")
	}

	el.closed = true
	el.winner = winner

	e.publish(el, Event{
		Kind:     EventDecided,
		Election: el.name,
		Results:  el.Results(),
		Voters:   el.VoterStatus(),
		Winner:   winner,
	})
}
