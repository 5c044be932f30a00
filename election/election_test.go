package election

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) ElectionEvent(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, voters []string, opts ...Option) *Engine {
	t.Helper()

	e := NewEngine(append([]Option{WithIDs(sequentialIDs())}, opts...)...)
	for _, name := range voters {
		if _, err := e.AddVoter("", name); err != nil {
			t.Fatalf("add voter %q: %v", name, err)
		}
	}
	return e
}

func checkTally(t *testing.T, e *Engine, el *Election) {
	t.Helper()

	sum := 0
	for _, r := range el.Results() {
		sum += r.Votes

		want := 0.0
		if e.VoterCount() > 0 {
			want = float64(r.Votes) / float64(e.VoterCount())
		}
		if r.Percentage != want {
			t.Errorf("candidate %q: percentage %v, want %v", r.Name, r.Percentage, want)
		}
	}
	if sum != el.Records() {
		t.Errorf("sum of votes %d != vote records %d", sum, el.Records())
	}
}

func TestAddElectionIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)

	first := e.AddElection("start", []string{"yes"})
	second := e.AddElection("start", []string{"no", "maybe"})

	if first != second {
		t.Fatal("expected the existing election to be returned")
	}
	if got := len(second.Candidates()); got != 1 {
		t.Fatalf("expected 1 candidate, got %d", got)
	}
}

func TestAddElectionKeepsCandidateOrder(t *testing.T) {
	e := newTestEngine(t, []string{"ana"})
	el := e.AddElection("universe", []string{"space", "fantasy", "noir"})

	var names []string
	for _, r := range el.Results() {
		names = append(names, r.Name)
	}
	if want := []string{"space", "fantasy", "noir"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("results order %v, want %v", names, want)
	}
}

func TestAddVoterRejectsDuplicateName(t *testing.T) {
	e := newTestEngine(t, []string{"ana"})

	if _, err := e.AddVoter("", "ana"); !errors.Is(err, ErrDuplicateVoterName) {
		t.Fatalf("expected ErrDuplicateVoterName, got %v", err)
	}
	if e.VoterCount() != 1 {
		t.Fatalf("expected 1 voter, got %d", e.VoterCount())
	}
}

func TestRemoveVoterUnknown(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.RemoveVoter("ghost"); !errors.Is(err, ErrVoterNotFound) {
		t.Fatalf("expected ErrVoterNotFound, got %v", err)
	}
}

func TestVoteLookupErrors(t *testing.T) {
	e := newTestEngine(t, []string{"ana"})
	e.AddElection("start", []string{"yes"})

	cases := []struct {
		name      string
		election  string
		voter     string
		candidate string
		want      error
	}{
		{"unknown election", "nope", "ana", "yes", ErrElectionNotFound},
		{"unknown voter", "start", "bob", "yes", ErrVoterNotFound},
		{"unknown candidate", "start", "ana", "no", ErrCandidateNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Vote(tc.election, tc.voter, tc.candidate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitRejectsForeignCandidate(t *testing.T) {
	e := newTestEngine(t, []string{"ana"})
	a := e.AddElection("a", []string{"yes"})
	b := e.AddElection("b", []string{"yes"})

	v, _ := e.Voter("ana")
	c, _ := b.Candidate("yes")

	if _, err := a.Submit(v, c); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestToggleVoteRestoresState(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob"})
	el := e.AddElection("universe", []string{"space", "noir"})

	before := el.Results()
	beforeStatus := el.VoterStatus()

	if _, err := e.Vote("universe", "ana", "space"); err != nil {
		t.Fatal(err)
	}
	checkTally(t, e, el)

	results, err := e.Vote("universe", "ana", "space")
	if err != nil {
		t.Fatal(err)
	}
	checkTally(t, e, el)

	if !reflect.DeepEqual(results, before) {
		t.Fatalf("results after toggle %v, want %v", results, before)
	}
	if !reflect.DeepEqual(el.VoterStatus(), beforeStatus) {
		t.Fatalf("voter status after toggle %v, want %v", el.VoterStatus(), beforeStatus)
	}
	if el.Closed() {
		t.Fatal("election should still be open")
	}
}

func TestRetractionReportsHasVotedFalse(t *testing.T) {
	e := newTestEngine(t, []string{"x", "y"})
	e.AddElection("pick", []string{"A", "B"})

	rec := &recorder{}
	e.Subscribe("pick", rec)

	e.Vote("pick", "x", "A")
	results, _ := e.Vote("pick", "x", "A")

	if results[0].Votes != 0 {
		t.Fatalf("expected 0 votes for A, got %d", results[0].Votes)
	}
	last := rec.events[len(rec.events)-1]
	if last.Kind != EventProgress {
		t.Fatalf("expected a progress event, got %v", last.Kind)
	}
	for _, s := range last.Voters {
		if s.Name == "x" && s.HasVoted {
			t.Fatal("expected x to have no vote after retraction")
		}
	}
	if rec.count(EventDecided) != 0 {
		t.Fatal("retraction must not decide the election")
	}
}

func TestUnanimityDecidesOnce(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob", "cy"})
	el := e.AddElection("start", []string{"yes"})

	rec := &recorder{}
	e.Subscribe("start", rec)

	for _, name := range []string{"ana", "bob"} {
		if _, err := e.Vote("start", name, "yes"); err != nil {
			t.Fatal(err)
		}
		if el.Closed() {
			t.Fatalf("closed early after %s voted", name)
		}
	}

	results, err := e.Vote("start", "cy", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Percentage != 1 {
		t.Fatalf("expected percentage 1, got %v", results[0].Percentage)
	}
	if !el.Closed() {
		t.Fatal("expected election to be closed")
	}
	winner, ok := el.Winner()
	if !ok || winner.Name != "yes" {
		t.Fatalf("unexpected winner %+v", winner)
	}

	if _, err := e.Vote("start", "ana", "yes"); !errors.Is(err, ErrElectionClosed) {
		t.Fatalf("expected ErrElectionClosed, got %v", err)
	}

	if got := rec.count(EventDecided); got != 1 {
		t.Fatalf("expected 1 decided event, got %d", got)
	}
	if got := rec.count(EventProgress); got != 3 {
		t.Fatalf("expected 3 progress events, got %d", got)
	}
	if rec.events[len(rec.events)-1].Winner.Name != "yes" {
		t.Fatal("decided event should carry the winner")
	}
}

func TestNoVotersNeverUnanimous(t *testing.T) {
	e := newTestEngine(t, nil)
	el := e.AddElection("start", []string{"yes"})

	for _, r := range el.Results() {
		if r.Percentage != 0 {
			t.Fatalf("expected 0 percentage with no voters, got %v", r.Percentage)
		}
	}
	if el.unanimous() != nil {
		t.Fatal("an engine with no voters must not reach unanimity")
	}
}

func TestSingleChoiceMovesVote(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob"})
	el := e.AddElection("universe", []string{"space", "noir"})

	e.Vote("universe", "ana", "space")
	results, err := e.Vote("universe", "ana", "noir")
	if err != nil {
		t.Fatal(err)
	}
	checkTally(t, e, el)

	if results[0].Votes != 0 || results[1].Votes != 1 {
		t.Fatalf("expected vote to move to noir, got %+v", results)
	}
	if el.Records() != 1 {
		t.Fatalf("expected 1 record, got %d", el.Records())
	}
}

func TestApprovalKeepsBothVotes(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob"}, WithBallotPolicy(Approval))
	el := e.AddElection("universe", []string{"space", "noir"})

	e.Vote("universe", "ana", "space")
	results, _ := e.Vote("universe", "ana", "noir")
	checkTally(t, e, el)

	if results[0].Votes != 1 || results[1].Votes != 1 {
		t.Fatalf("expected a vote on each candidate, got %+v", results)
	}
	if el.Records() != 2 {
		t.Fatalf("expected 2 records, got %d", el.Records())
	}
}

func TestRemoveVoterDropsOpenVotes(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob", "cy"}, WithDepartureRecheck(false))
	el := e.AddElection("universe", []string{"space", "noir"})

	e.Vote("universe", "ana", "space")
	e.Vote("universe", "bob", "noir")

	if err := e.RemoveVoter("bob"); err != nil {
		t.Fatal(err)
	}
	checkTally(t, e, el)

	results := el.Results()
	if results[1].Votes != 0 {
		t.Fatalf("expected bob's vote to be dropped, got %+v", results)
	}
	if results[0].Percentage != 0.5 {
		t.Fatalf("expected 0.5 for space, got %v", results[0].Percentage)
	}
}

func TestDepartureRecheck(t *testing.T) {
	cases := []struct {
		name        string
		recheck     bool
		wantClosed  bool
		wantDecided int
	}{
		{"recheck enabled", true, true, 1},
		{"recheck disabled", false, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, []string{"ana", "bob", "cy"}, WithDepartureRecheck(tc.recheck))
			el := e.AddElection("start", []string{"yes"})

			rec := &recorder{}
			e.Subscribe("start", rec)

			e.Vote("start", "ana", "yes")
			e.Vote("start", "bob", "yes")

			if err := e.RemoveVoter("cy"); err != nil {
				t.Fatal(err)
			}

			if el.Closed() != tc.wantClosed {
				t.Fatalf("closed = %v, want %v", el.Closed(), tc.wantClosed)
			}
			if got := rec.count(EventDecided); got != tc.wantDecided {
				t.Fatalf("decided events = %d, want %d", got, tc.wantDecided)
			}

			if !tc.recheck {
				// The next vote event settles it against the smaller electorate.
				e.Vote("start", "ana", "yes")
				e.Vote("start", "ana", "yes")
				if !el.Closed() {
					t.Fatal("expected the next vote to close the election")
				}
			}
		})
	}
}

func TestRemoveVoterKeepsClosedElection(t *testing.T) {
	e := newTestEngine(t, []string{"ana", "bob"})
	el := e.AddElection("start", []string{"yes"})

	rec := &recorder{}
	e.Subscribe("start", rec)

	e.Vote("start", "ana", "yes")
	e.Vote("start", "bob", "yes")
	if !el.Closed() {
		t.Fatal("expected closed election")
	}
	before := rec.count(EventDecided)

	if err := e.RemoveVoter("bob"); err != nil {
		t.Fatal(err)
	}

	if !el.Closed() {
		t.Fatal("departure must not reopen a closed election")
	}
	if el.Records() != 2 {
		t.Fatalf("closed election should keep its records, got %d", el.Records())
	}
	if rec.count(EventDecided) != before {
		t.Fatal("departure must not decide a closed election again")
	}
}

func TestSubscribeIsKeyedByElection(t *testing.T) {
	e := newTestEngine(t, []string{"ana"})
	e.AddElection("start", []string{"yes"})
	e.AddElection("universe", []string{"space"})

	var got []string
	e.Subscribe("universe", ObserverFunc(func(ev Event) {
		got = append(got, ev.Election)
	}))

	e.Vote("start", "ana", "yes")
	if len(got) != 0 {
		t.Fatalf("observer received events for another election: %v", got)
	}

	e.Vote("universe", "ana", "space")
	if len(got) != 2 {
		t.Fatalf("expected progress and decided events, got %v", got)
	}
}

func TestParseBallotPolicy(t *testing.T) {
	cases := []struct {
		in   string
		want BallotPolicy
		ok   bool
	}{
		{"single", SingleChoice, true},
		{"", SingleChoice, true},
		{"approval", Approval, true},
		{"ranked", SingleChoice, false},
	}

	for _, tc := range cases {
		got, ok := ParseBallotPolicy(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseBallotPolicy(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
