// Package players tracks the participants joined to one session.
package players

// Player holds the data we store server-side for a joined participant.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Session string `json:"session"`
}

// Registry keeps joined players in join order. It enforces no rules of its
// own; name uniqueness and capacity belong to the session.
type Registry struct {
	players map[string]*Player
	order   []string

	lastAdded   *Player
	lastRemoved *Player
}

func NewRegistry() *Registry {
	return &Registry{
		players: make(map[string]*Player),
	}
}

// Add stores p, replacing any player with the same ID.
func (r *Registry) Add(p *Player) {
	if _, exists := r.players[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
	r.lastAdded = p
}

func (r *Registry) Remove(id string) (*Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}

	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.lastRemoved = p

	return p, true
}

func (r *Registry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) ByName(name string) (*Player, bool) {
	for _, id := range r.order {
		if p := r.players[id]; p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// List returns a copy of the joined players in join order.
func (r *Registry) List() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.players[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.players)
}

func (r *Registry) LastAdded() *Player {
	return r.lastAdded
}

func (r *Registry) LastRemoved() *Player {
	return r.lastRemoved
}
