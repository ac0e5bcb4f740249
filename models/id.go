package models

import (
	"sort"
	"sync"
)

// A sequential id generator.
//
// Released ids are handed out again lowest first so that id assignment stays
// deterministic across runs.
type SequentialIDGenerator struct {
	mutex       sync.Mutex
	currentID   uint32
	reusableIDs []uint32
}

// New returns a sequential id.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.reusableIDs) != 0 {
		id := g.reusableIDs[0]
		g.reusableIDs = g.reusableIDs[1:]
		return id
	}

	g.currentID++
	return g.currentID
}

// Reuse marks the given id as reusable. Reusable ids are returned in priority
// when using New.
func (g *SequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	i := sort.Search(len(g.reusableIDs), func(i int) bool {
		return g.reusableIDs[i] >= id
	})
	if i < len(g.reusableIDs) && g.reusableIDs[i] == id {
		return
	}

	g.reusableIDs = append(g.reusableIDs, 0)
	copy(g.reusableIDs[i+1:], g.reusableIDs[i:])
	g.reusableIDs[i] = id
}
