package story

import (
	"github.com/Seednode/storybox/catalog"
	"github.com/Seednode/storybox/election"
	"github.com/Seednode/storybox/players"
)

// Outbound message types.
const (
	MsgHome           = "home"
	MsgJoinAccepted   = "join_accepted"
	MsgJoinRejected   = "join_rejected"
	MsgRosterUpdated  = "roster_updated"
	MsgVoteProgress   = "vote_progress"
	MsgVoteRejected   = "vote_rejected"
	MsgPhaseChanged   = "phase_changed"
	MsgEditorAssigned = "editor_assigned"
)

// Notifier delivers a message to a single player's connection. It must not
// block, and must not call back into the session.
type Notifier interface {
	Send(playerID string, msg any)
}

// CandidateView is a candidate as shown to players.
type CandidateView struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Pitch   string `json:"pitch,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Snapshot is the broadcast-visible state of a session.
type Snapshot struct {
	ID         string           `json:"id"`
	Phase      Phase            `json:"phase"`
	Closed     bool             `json:"closed"`
	Universe   string           `json:"universe,omitempty"`
	Theme      string           `json:"theme,omitempty"`
	Editor     *players.Player  `json:"editor,omitempty"`
	Election   string           `json:"election,omitempty"`
	Candidates []CandidateView  `json:"candidates"`
	Players    []players.Player `json:"players"`
}

// SessionRef is the minimal descriptor sent to rejected clients.
type SessionRef struct {
	ID    string `json:"id"`
	Phase Phase  `json:"phase"`
}

// HomeMessage greets a visitor who has not joined yet.
type HomeMessage struct {
	Type    string `json:"type"`    // "home"
	Session string `json:"session"` // session the visitor is looking at
	Name    string `json:"name"`    // suggested display name
}

type JoinAcceptedMessage struct {
	Type    string   `json:"type"` // "join_accepted"
	Player  string   `json:"player"`
	Session Snapshot `json:"session"`
}

// JoinRejectedMessage is sent only to the client whose join failed.
type JoinRejectedMessage struct {
	Type    string     `json:"type"` // "join_rejected"
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	Session SessionRef `json:"session"`
}

type RosterUpdatedMessage struct {
	Type        string                 `json:"type"` // "roster_updated"
	Added       *players.Player        `json:"added,omitempty"`
	Removed     *players.Player        `json:"removed,omitempty"`
	Players     []players.Player       `json:"players"`
	VoterStatus []election.VoterStatus `json:"voterStatus"`
}

type VoteProgressMessage struct {
	Type        string                 `json:"type"` // "vote_progress"
	Election    string                 `json:"election"`
	Results     []election.Result      `json:"results"`
	VoterStatus []election.VoterStatus `json:"voterStatus"`
}

// VoteRejectedMessage is sent only to the client whose vote failed.
type VoteRejectedMessage struct {
	Type      string `json:"type"` // "vote_rejected"
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Election  string `json:"election"`
	Candidate string `json:"candidate"`
}

type PhaseChangedMessage struct {
	Type       string          `json:"type"` // "phase_changed"
	Phase      Phase           `json:"phase"`
	Election   string          `json:"election,omitempty"`
	Winner     string          `json:"winner"`
	Candidates []CandidateView `json:"candidates"`
	Theme      *catalog.Theme  `json:"theme,omitempty"`
	Editor     *players.Player `json:"editor,omitempty"`
}

// EditorAssignedMessage is sent privately to the chosen editor.
type EditorAssignedMessage struct {
	Type  string   `json:"type"` // "editor_assigned"
	Words []string `json:"words"`
}
