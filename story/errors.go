package story

import (
	"errors"

	"github.com/Seednode/storybox/election"
)

var (
	ErrSessionClosed  = errors.New("session is closed to new players")
	ErrDuplicateName  = errors.New("name already in use in this session")
	ErrInvalidName    = errors.New("name must be between 1 and 32 characters")
	ErrAlreadyJoined  = errors.New("player already joined this session")
	ErrPlayerNotFound = errors.New("player has not joined this session")
	ErrSessionExists  = errors.New("session already exists")
)

// Kind maps an error to the stable identifier sent to clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionClosed):
		return "session_closed_for_joins"
	case errors.Is(err, ErrDuplicateName), errors.Is(err, election.ErrDuplicateVoterName):
		return "duplicate_voter_name"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ErrSessionExists):
		return "session_exists"
	case errors.Is(err, election.ErrElectionClosed):
		return "election_closed"
	case errors.Is(err, election.ErrElectionNotFound):
		return "election_not_found"
	case errors.Is(err, election.ErrVoterNotFound):
		return "voter_not_found"
	case errors.Is(err, election.ErrCandidateNotFound):
		return "candidate_not_found"
	default:
		return "internal"
	}
}
