package election

type EventKind int

const (
	// EventProgress follows every change to an election's votes or electorate.
	EventProgress EventKind = iota
	// EventDecided is published once, when an election reaches unanimity.
	EventDecided
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventDecided:
		return "decided"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Election string
	Results  []Result
	Voters   []VoterStatus
	Winner   *Candidate // EventDecided only
}

// Observer receives the events of the elections it subscribed to. Events are
// delivered synchronously, from inside the call that caused them.
type Observer interface {
	ElectionEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) ElectionEvent(ev Event) {
	f(ev)
}

// Subscribe registers o for events of the named election. The election does
// not need to exist yet.
func (e *Engine) Subscribe(election string, o Observer) {
	e.observers[election] = append(e.observers[election], o)
}

func (e *Engine) publish(el *Election, ev Event) {
	for _, o := range e.observers[el.name] {
		o.ElectionEvent(ev)
	}
}
