package models

import (
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/zonecull/geometry"
)

const (
	ErrTypeObjectNotFound = "scene-object-not-found"
	ErrTypeObjectExists   = "scene-object-already-added"
)

// ObjectHandler is called with the objects that changed.
type ObjectHandler func([]*SceneObject)

// ObjectStore holds the objects of a scene.
type ObjectStore struct {
	mutex   sync.RWMutex
	ids     SequentialIDGenerator
	objects map[uint32]*SceneObject
	names   map[string]uint32

	subscriptionMutex sync.RWMutex
	subscriptionIDs   SequentialIDGenerator
	subscriptions     map[uint32]ObjectHandler
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects:       make(map[uint32]*SceneObject),
		names:         make(map[string]uint32),
		subscriptions: make(map[uint32]ObjectHandler),
	}
}

// Add assigns an id to the object and stores it.
func (s *ObjectStore) Add(o *SceneObject) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if o.Name != "" {
		if _, ok := s.names[o.Name]; ok {
			return errors.New("scene object is already added").
				WithType(ErrTypeObjectExists).
				WithTag("name", o.Name)
		}
	}

	o.ID = s.ids.New()
	s.objects[o.ID] = o
	if o.Name != "" {
		s.names[o.Name] = o.ID
	}

	instrumentIncreaseObjectGauge(o.TypeMask)
	return nil
}

func (s *ObjectStore) Remove(id uint32) (*SceneObject, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	o, ok := s.objects[id]
	if !ok {
		return nil, false
	}

	delete(s.objects, id)
	delete(s.names, o.Name)
	s.ids.Reuse(id)

	instrumentDecreaseObjectGauge(o.TypeMask)
	return o, true
}

func (s *ObjectStore) ByID(id uint32) (*SceneObject, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	o, ok := s.objects[id]
	return o, ok
}

func (s *ObjectStore) ByName(name string) (*SceneObject, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, ok := s.names[name]
	if !ok {
		return nil, errors.New("scene object not found").
			WithType(ErrTypeObjectNotFound).
			WithTag("name", name)
	}
	return s.objects[id], nil
}

// Objects returns the stored objects sorted by id.
func (s *ObjectStore) Objects() []*SceneObject {
	s.mutex.RLock()
	objects := make([]*SceneObject, 0, len(s.objects))
	for _, o := range s.objects {
		objects = append(objects, o)
	}
	s.mutex.RUnlock()

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ID < objects[j].ID
	})
	return objects
}

func (s *ObjectStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.objects)
}

// Move sets the world box of the object with the given id and notifies the
// subscribers.
func (s *ObjectStore) Move(id uint32, b geometry.Box) error {
	o, ok := s.ByID(id)
	if !ok {
		return errors.New("scene object not found").
			WithType(ErrTypeObjectNotFound).
			WithTag("id", id)
	}

	o.SetWorldBox(b)
	s.Notify(o)
	return nil
}

// Subscribe registers a handler called whenever objects are moved. It
// returns the id to unsubscribe with.
func (s *ObjectStore) Subscribe(h ObjectHandler) uint32 {
	s.subscriptionMutex.Lock()
	defer s.subscriptionMutex.Unlock()

	id := s.subscriptionIDs.New()
	s.subscriptions[id] = h
	return id
}

func (s *ObjectStore) Unsubscribe(id uint32) {
	s.subscriptionMutex.Lock()
	defer s.subscriptionMutex.Unlock()

	delete(s.subscriptions, id)
	s.subscriptionIDs.Reuse(id)
}

// Notify calls the subscribed handlers with the given objects.
func (s *ObjectStore) Notify(objects ...*SceneObject) {
	if len(objects) == 0 {
		return
	}

	s.subscriptionMutex.RLock()
	ids := make([]uint32, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	handlers := make([]ObjectHandler, len(ids))
	for i, id := range ids {
		handlers[i] = s.subscriptions[id]
	}
	s.subscriptionMutex.RUnlock()

	for _, h := range handlers {
		h(objects)
	}
}
