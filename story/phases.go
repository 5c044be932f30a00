package story

import (
	"github.com/Seednode/storybox/catalog"
	"github.com/Seednode/storybox/election"
	"github.com/sirupsen/logrus"
)

const startTitle = "Let's play!"

// Every *Locked method below runs with s.mu held, either from the session
// constructor or from an engine event raised inside Vote or Leave.

func (s *Session) openStartLocked() {
	s.openElectionLocked(ElectionStart, []CandidateView{
		{Name: StartCandidate, Title: startTitle},
	})
	s.advanceLocked(PhaseWaitingForPlayers)
}

// openElectionLocked creates the named election from views, subscribes to
// its events and makes it current.
func (s *Session) openElectionLocked(name string, views []CandidateView) {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}

	s.engine.AddElection(name, names)
	s.engine.Subscribe(name, election.ObserverFunc(s.onElectionLocked))

	s.current = name
	s.candidates = views

	if len(views) == 0 {
		s.log.WithField("election", name).Warn("election opened with no candidates")
	}
}

func (s *Session) advanceLocked(next Phase) {
	if !s.phase.CanTransitionTo(next) {
		s.log.WithFields(logrus.Fields{
			"from": s.phase,
			"to":   next,
		}).Error("invalid phase transition")
		return
	}

	s.log.WithFields(logrus.Fields{
		"from": s.phase,
		"to":   next,
	}).Info("phase changed")

	s.phase = next
}

func (s *Session) onElectionLocked(ev election.Event) {
	switch ev.Kind {
	case election.EventProgress:
		s.broadcastLocked(VoteProgressMessage{
			Type:        MsgVoteProgress,
			Election:    ev.Election,
			Results:     ev.Results,
			VoterStatus: ev.Voters,
		})

	case election.EventDecided:
		s.log.WithFields(logrus.Fields{
			"election": ev.Election,
			"winner":   ev.Winner.Name,
		}).Info("election decided")

		switch ev.Election {
		case ElectionStart:
			s.openUniverseVoteLocked(ev.Winner.Name)
		case ElectionUniverse:
			s.openThemesVoteLocked(ev.Winner.Name)
		case ElectionThemes:
			s.assignEditorLocked(ev.Winner.Name)
		}
	}
}

func (s *Session) openUniverseVoteLocked(winner string) {
	s.closed = true

	universes := s.catalog.Universes()
	views := make([]CandidateView, 0, len(universes))
	for _, u := range universes {
		views = append(views, CandidateView{Name: u.Key, Title: u.Title})
	}

	s.openElectionLocked(ElectionUniverse, views)
	s.advanceLocked(PhaseVoteUniverse)

	s.broadcastLocked(PhaseChangedMessage{
		Type:       MsgPhaseChanged,
		Phase:      s.phase,
		Election:   s.current,
		Winner:     winner,
		Candidates: views,
	})
}

func (s *Session) openThemesVoteLocked(universe string) {
	s.universe = universe

	themes, err := s.catalog.Themes(universe)
	if err != nil {
		s.log.WithError(err).Error("cannot list themes")
	}

	views := make([]CandidateView, 0, len(themes))
	for _, t := range themes {
		views = append(views, CandidateView{
			Name:    t.Key,
			Title:   t.Title,
			Pitch:   t.Pitch,
			Summary: t.Summary,
		})
	}

	s.openElectionLocked(ElectionThemes, views)
	s.advanceLocked(PhaseVoteThemes)

	s.broadcastLocked(PhaseChangedMessage{
		Type:       MsgPhaseChanged,
		Phase:      s.phase,
		Election:   s.current,
		Winner:     universe,
		Candidates: views,
	})
}

// assignEditorLocked records the theme and picks the editor uniformly at
// random from the players joined right now.
func (s *Session) assignEditorLocked(theme string) {
	s.theme = theme

	content, err := s.catalog.Theme(theme)
	if err != nil {
		s.log.WithError(err).Error("cannot load theme")
		content = catalog.Theme{Key: theme}
	}

	list := s.players.List()
	if len(list) == 0 {
		// Unanimity needs at least one voter, and voters are players.
		panic("story: theme decided with no players")
	}
	editor := list[s.rng.Intn(len(list))]
	s.editor = &editor

	s.current = ""
	s.candidates = nil
	s.advanceLocked(PhaseVotePitch)

	s.log.WithFields(logrus.Fields{
		"player": editor.ID,
		"name":   editor.Name,
	}).Info("editor assigned")

	announced := editor
	s.broadcastLocked(PhaseChangedMessage{
		Type:       MsgPhaseChanged,
		Phase:      s.phase,
		Winner:     theme,
		Candidates: []CandidateView{},
		Theme:      &content,
		Editor:     &announced,
	})

	s.notify.Send(editor.ID, EditorAssignedMessage{
		Type:  MsgEditorAssigned,
		Words: s.words.PickN(s.universe, s.promptWords),
	})
}
