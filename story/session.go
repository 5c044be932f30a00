/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package story runs storytelling sessions: a fixed chain of unanimous
// elections (start, universe, themes) that ends with one player picked at
// random to write the pitch.
package story

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Seednode/storybox/catalog"
	"github.com/Seednode/storybox/election"
	"github.com/Seednode/storybox/players"
	"github.com/sirupsen/logrus"
)

const maxNameLength = 32

// Session is one game. All of its state, including its election engine and
// player registry, is guarded by a single mutex, so every join, vote, leave
// and phase change runs to completion before the next one starts.
type Session struct {
	mu sync.Mutex

	id       string
	phase    Phase
	closed   bool
	universe string
	theme    string
	editor   *players.Player

	current    string // name of the open election
	candidates []CandidateView

	players *players.Registry
	engine  *election.Engine
	words   *catalog.WordPicker
	rng     Rand
	notify  Notifier

	catalog     catalog.Catalog
	log         logrus.FieldLogger
	now         func() time.Time
	promptWords int

	lastActive time.Time
}

// NewSession creates a session and opens its start election.
func NewSession(id string, n Notifier, opts ...Option) *Session {
	return newSession(id, n, buildOptions(opts))
}

func newSession(id string, n Notifier, o options) *Session {
	rng := o.newRand()

	s := &Session{
		id:          id,
		phase:       PhaseInit,
		players:     players.NewRegistry(),
		engine:      election.NewEngine(o.engineOpts...),
		words:       catalog.NewWordPicker(o.catalog, rng),
		rng:         rng,
		notify:      n,
		catalog:     o.catalog,
		log:         o.logger.WithField("session", id),
		now:         o.now,
		promptWords: o.promptWords,
		lastActive:  o.now(),
	}

	s.mu.Lock()
	s.openStartLocked()
	s.mu.Unlock()

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Join admits a player while the session is still open. On failure the
// player is sent a join_rejected message and nothing is created.
func (s *Session) Join(playerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()
	name = strings.TrimSpace(name)

	if err := s.admissibleLocked(playerID, name); err != nil {
		s.log.WithFields(logrus.Fields{
			"player": playerID,
			"name":   name,
			"phase":  s.phase,
		}).WithError(err).Info("join rejected")

		s.notify.Send(playerID, JoinRejectedMessage{
			Type:    MsgJoinRejected,
			Kind:    Kind(err),
			Message: err.Error(),
			Session: SessionRef{ID: s.id, Phase: s.phase},
		})
		return err
	}

	if _, err := s.engine.AddVoter(playerID, name); err != nil {
		s.notify.Send(playerID, JoinRejectedMessage{
			Type:    MsgJoinRejected,
			Kind:    Kind(err),
			Message: err.Error(),
			Session: SessionRef{ID: s.id, Phase: s.phase},
		})
		return err
	}

	p := &players.Player{ID: playerID, Name: name, Session: s.id}
	s.players.Add(p)

	s.log.WithFields(logrus.Fields{
		"player": playerID,
		"name":   name,
	}).Info("player joined")

	s.notify.Send(playerID, JoinAcceptedMessage{
		Type:    MsgJoinAccepted,
		Player:  playerID,
		Session: s.snapshotLocked(),
	})

	added := *p
	s.broadcastLocked(RosterUpdatedMessage{
		Type:        MsgRosterUpdated,
		Added:       &added,
		Players:     s.players.List(),
		VoterStatus: s.voterStatusLocked(),
	})

	return nil
}

func (s *Session) admissibleLocked(playerID, name string) error {
	switch {
	case s.closed || !s.phase.Open():
		return ErrSessionClosed
	case name == "" || utf8.RuneCountInString(name) > maxNameLength:
		return ErrInvalidName
	}
	if _, ok := s.players.Get(playerID); ok {
		return ErrAlreadyJoined
	}
	if _, ok := s.players.ByName(name); ok {
		return ErrDuplicateName
	}
	return nil
}

// Vote submits, or retracts, the player's vote. Errors are also reported to
// the player as a vote_rejected message.
func (s *Session) Vote(playerID, electionName, candidate string) ([]election.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()

	var (
		results []election.Result
		err     error
	)

	p, ok := s.players.Get(playerID)
	if !ok {
		err = ErrPlayerNotFound
	} else {
		results, err = s.engine.Vote(electionName, p.Name, candidate)
	}

	fields := logrus.Fields{
		"player":    playerID,
		"election":  electionName,
		"candidate": candidate,
	}

	if err != nil {
		s.log.WithFields(fields).WithError(err).Info("vote rejected")

		s.notify.Send(playerID, VoteRejectedMessage{
			Type:      MsgVoteRejected,
			Kind:      Kind(err),
			Message:   err.Error(),
			Election:  electionName,
			Candidate: candidate,
		})
		return nil, err
	}

	s.log.WithFields(fields).Debug("vote recorded")

	return results, nil
}

// Leave removes a player and its voter registration. It reports whether the
// player had joined.
func (s *Session) Leave(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()

	p, ok := s.players.Remove(playerID)
	if !ok {
		return false
	}

	s.log.WithFields(logrus.Fields{
		"player": playerID,
		"name":   p.Name,
	}).Info("player left")

	if err := s.engine.RemoveVoter(p.Name); err != nil {
		s.log.WithError(err).Warn("player had no voter registration")
	}

	removed := *p
	s.broadcastLocked(RosterUpdatedMessage{
		Type:        MsgRosterUpdated,
		Removed:     &removed,
		Players:     s.players.List(),
		VoterStatus: s.voterStatusLocked(),
	})

	return true
}

// Players returns the joined players in join order.
func (s *Session) Players() []players.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.players.List()
}

// Editor returns the player chosen to write the pitch, once there is one.
func (s *Session) Editor() (players.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor == nil {
		return players.Player{}, false
	}
	return *s.editor, true
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Phase:      s.phase,
		Closed:     s.closed,
		Universe:   s.universe,
		Theme:      s.theme,
		Election:   s.current,
		Candidates: append([]CandidateView{}, s.candidates...),
		Players:    s.players.List(),
	}
	if s.editor != nil {
		editor := *s.editor
		snap.Editor = &editor
	}
	return snap
}

func (s *Session) voterStatusLocked() []election.VoterStatus {
	if el, err := s.engine.Election(s.current); err == nil {
		return el.VoterStatus()
	}

	// No election is open once the editor has been chosen.
	voters := s.engine.Voters()
	out := make([]election.VoterStatus, 0, len(voters))
	for _, v := range voters {
		out = append(out, election.VoterStatus{ID: v.ID, Name: v.Name})
	}
	return out
}

func (s *Session) broadcastLocked(msg any) {
	for _, p := range s.players.List() {
		s.notify.Send(p.ID, msg)
	}
}
