package render

import (
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/models"
)

// Batch is a group of objects of the same type submitted together.
type Batch struct {
	Pass     models.PassType      `json:"pass"`
	TypeMask models.TypeMask      `json:"type_mask"`
	Objects  []*models.SceneObject `json:"-"`
}

// Sink receives the batches of a pass. Drawing is up to the sink.
type Sink func(pass models.PassType, batches []Batch)

// BatchManager groups the objects surviving culling into batches and hands
// them to its sinks.
type BatchManager struct {
	mutex sync.Mutex
	sinks []Sink
	last  []Batch
}

func NewBatchManager(sinks ...Sink) *BatchManager {
	return &BatchManager{
		sinks: sinks,
	}
}

// RenderBatch groups objects by type mask, ordered by mask. Objects keep
// their relative order inside a batch.
func (m *BatchManager) RenderBatch(pass models.PassType, objects []*models.SceneObject) []Batch {
	groups := make(map[models.TypeMask][]*models.SceneObject)
	for _, o := range objects {
		groups[o.TypeMask] = append(groups[o.TypeMask], o)
	}

	batches := make([]Batch, 0, len(groups))
	for mask, objs := range groups {
		batches = append(batches, Batch{
			Pass:     pass,
			TypeMask: mask,
			Objects:  objs,
		})
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].TypeMask < batches[j].TypeMask
	})

	m.mutex.Lock()
	m.last = batches
	sinks := m.sinks
	m.mutex.Unlock()

	for _, s := range sinks {
		s(pass, batches)
	}

	logs.WithTag("pass", pass).
		WithTag("batches", len(batches)).
		WithTag("objects", len(objects)).
		Debug("objects batched")

	instrumentBatches(pass, batches, len(objects))
	return batches
}

// LastBatches returns the batches of the last RenderBatch call.
func (m *BatchManager) LastBatches() []Batch {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	batches := make([]Batch, len(m.last))
	copy(batches, m.last)
	return batches
}
