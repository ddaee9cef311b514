package simulation

import (
	"github.com/ajitpratap0/genpool/pkg/pool"
)

// Entity is one simulated actor. It refers to its target weakly and keeps
// the entities it owns alive through strong handles.
type Entity struct {
	ID     uint64
	Name   string
	HP     int
	Target pool.WeakHandle[Entity]
	// Owned only ever holds entities with a larger ID, so ownership cannot
	// form a cycle.
	Owned []*pool.Handle[Entity]
}

// Drop releases everything the entity owns once it has been cleared.
func (e *Entity) Drop() {
	for _, h := range e.Owned {
		h.Release()
	}
	e.Owned = nil
}

// Alive reports whether the entity still has hit points.
func (e *Entity) Alive() bool {
	return e.HP > 0
}

func (e *Entity) owns(w pool.WeakHandle[Entity]) bool {
	for _, h := range e.Owned {
		if h.Weak() == w {
			return true
		}
	}
	return false
}
