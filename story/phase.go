package story

// Phase is a step of a session's lifecycle.
type Phase string

const (
	PhaseInit              Phase = "init"                // session created, start election not yet open
	PhaseWaitingForPlayers Phase = "waiting_for_players" // joins open, voting to start
	PhaseVoteUniverse      Phase = "vote_universe"       // joins closed
	PhaseVoteThemes        Phase = "vote_themes"
	PhaseVotePitch         Phase = "vote_pitch" // editor chosen; terminal
)

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether a session may move from p to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase]Phase{
		PhaseInit:              PhaseWaitingForPlayers,
		PhaseWaitingForPlayers: PhaseVoteUniverse,
		PhaseVoteUniverse:      PhaseVoteThemes,
		PhaseVoteThemes:        PhaseVotePitch,
	}

	next, ok := validTransitions[p]
	return ok && next == target
}

// Open reports whether new players may join a session in phase p.
func (p Phase) Open() bool {
	return p == PhaseInit || p == PhaseWaitingForPlayers
}

// Election names, one per voting phase.
const (
	ElectionStart    = "start"
	ElectionUniverse = "universe"
	ElectionThemes   = "themes"
)

// StartCandidate is the only candidate of the start election.
const StartCandidate = "yes"
