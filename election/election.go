/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package election implements unanimous-consent elections.
//
// An Engine holds a set of voters and any number of named elections. Votes
// toggle: submitting the same voter/candidate pair twice retracts the vote.
// An election closes the first time one candidate holds the vote of every
// registered voter, and observers subscribed to that election are told
// exactly once.
//
// The engine is not safe for concurrent use. Callers serialize access, one
// engine per session.
package election

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrElectionClosed     = errors.New("voting is closed for this election")
	ErrElectionNotFound   = errors.New("election not found")
	ErrVoterNotFound      = errors.New("voter not found")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrDuplicateVoterName = errors.New("voter name already registered")
)

// BallotPolicy decides what happens when a voter who already supports one
// candidate votes for another.
type BallotPolicy int

const (
	// SingleChoice retracts the voter's previous vote in the same election
	// before recording the new one.
	SingleChoice BallotPolicy = iota
	// Approval lets a voter support several candidates at once.
	Approval
)

func (p BallotPolicy) String() string {
	switch p {
	case SingleChoice:
		return "single"
	case Approval:
		return "approval"
	default:
		return "unknown"
	}
}

// ParseBallotPolicy accepts the names returned by BallotPolicy.String.
func ParseBallotPolicy(s string) (BallotPolicy, bool) {
	switch s {
	case "single", "":
		return SingleChoice, true
	case "approval":
		return Approval, true
	}
	return SingleChoice, false
}

type Voter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Result is one candidate's standing. Percentage is a fraction in [0, 1] of
// the currently registered voters.
type Result struct {
	Name       string  `json:"name"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type VoterStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HasVoted bool   `json:"hasVoted"`
}

type Option func(*Engine)

// WithIDs replaces the uuid generator used for voters and candidates.
func WithIDs(next func() string) Option {
	return func(e *Engine) {
		e.newID = next
	}
}

func WithBallotPolicy(p BallotPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithDepartureRecheck controls whether removing a voter immediately checks
// open elections for unanimity against the smaller electorate.
func WithDepartureRecheck(enabled bool) Option {
	return func(e *Engine) {
		e.recheckOnRemove = enabled
	}
}

type Engine struct {
	voters      map[string]*Voter // by id
	voterOrder  []string
	voterByName map[string]string // name -> id

	elections     map[string]*Election
	electionOrder []string

	observers map[string][]Observer

	newID           func() string
	policy          BallotPolicy
	recheckOnRemove bool
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		voters:          make(map[string]*Voter),
		voterByName:     make(map[string]string),
		elections:       make(map[string]*Election),
		observers:       make(map[string][]Observer),
		newID:           uuid.NewString,
		policy:          SingleChoice,
		recheckOnRemove: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() BallotPolicy {
	return e.policy
}

// AddVoter registers a voter. An empty id is generated.
func (e *Engine) AddVoter(id, name string) (*Voter, error) {
	if _, taken := e.voterByName[name]; taken {
		return nil, ErrDuplicateVoterName
	}
	if id == "" {
		id = e.newID()
	}

	v := &Voter{ID: id, Name: name}
	e.voters[id] = v
	e.voterOrder = append(e.voterOrder, id)
	e.voterByName[name] = id

	return v, nil
}

// RemoveVoter deletes the voter with the given name. Its votes are dropped
// from every open election; closed elections keep their final tally.
func (e *Engine) RemoveVoter(name string) error {
	id, ok := e.voterByName[name]
	if !ok {
		return ErrVoterNotFound
	}

	delete(e.voterByName, name)
	delete(e.voters, id)
	for i, vid := range e.voterOrder {
		if vid == id {
			e.voterOrder = append(e.voterOrder[:i], e.voterOrder[i+1:]...)
			break
		}
	}

	for _, ename := range e.electionOrder {
		el := e.elections[ename]
		if el.closed {
			continue
		}

		// The denominator changed, so percentages did too.
		el.dropVoter(id)
		e.publish(el, el.progress())

		if e.recheckOnRemove {
			e.settle(el)
		}
	}

	return nil
}

func (e *Engine) Voter(name string) (*Voter, error) {
	id, ok := e.voterByName[name]
	if !ok {
		return nil, ErrVoterNotFound
	}
	return e.voters[id], nil
}

// Voters returns the registered voters in registration order.
func (e *Engine) Voters() []Voter {
	out := make([]Voter, 0, len(e.voterOrder))
	for _, id := range e.voterOrder {
		out = append(out, *e.voters[id])
	}
	return out
}

func (e *Engine) VoterCount() int {
	return len(e.voters)
}

// AddElection creates an election with the given candidates, in order. If an
// election with that name already exists it is returned unchanged.
func (e *Engine) AddElection(name string, candidates []string) *Election {
	if el, ok := e.elections[name]; ok {
		return el
	}

	el := &Election{
		engine: e,
		name:   name,
		byName: make(map[string]int, len(candidates)),
		ballot: make(map[string]map[string]struct{}),
		counts: make(map[string]int, len(candidates)),
	}
	for _, c := range candidates {
		if _, dup := el.byName[c]; dup {
			continue
		}
		el.byName[c] = len(el.candidates)
		el.candidates = append(el.candidates, Candidate{ID: e.newID(), Name: c})
	}

	e.elections[name] = el
	e.electionOrder = append(e.electionOrder, name)

	return el
}

func (e *Engine) Election(name string) (*Election, error) {
	el, ok := e.elections[name]
	if !ok {
		return nil, ErrElectionNotFound
	}
	return el, nil
}

// Vote submits or retracts a vote, resolving every argument by name.
func (e *Engine) Vote(election, voter, candidate string) ([]Result, error) {
	el, err := e.Election(election)
	if err != nil {
		return nil, err
	}
	v, err := e.Voter(voter)
	if err != nil {
		return nil, err
	}
	c, err := el.Candidate(candidate)
	if err != nil {
		return nil, err
	}
	return el.Submit(v, c)
}
