package mem

import (
	"context"
	"sync"

	"islandora-handle-backend/internal/domain/ports"
)

// Object is an in-memory repository object
type Object struct {
	pid     string
	cmodels []string
	streams map[string][]byte
	mu      sync.RWMutex
}

// NewObject creates an object with the given pid and content models
func NewObject(pid string, contentModels ...string) *Object {
	return &Object{
		pid:     pid,
		cmodels: contentModels,
		streams: make(map[string][]byte),
	}
}

// ID returns the object's persistent identifier
func (o *Object) ID() string {
	return o.pid
}

// ContentModels returns a copy of the object's content models
func (o *Object) ContentModels() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.cmodels))
	copy(out, o.cmodels)
	return out
}

// Has reports whether the object carries the datastream
func (o *Object) Has(dsid string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.streams[dsid]
	return ok
}

// Datastream returns keyed access to a datastream's content
func (o *Object) Datastream(dsid string) (ports.Datastream, error) {
	if !o.Has(dsid) {
		return nil, ports.ErrDatastreamNotFound
	}
	return &datastream{obj: o, id: dsid}, nil
}

// SetDatastream creates or replaces a datastream's content
func (o *Object) SetDatastream(dsid string, content []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams[dsid] = append([]byte(nil), content...)
}

// RemoveDatastream drops a datastream entirely
func (o *Object) RemoveDatastream(dsid string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.streams, dsid)
}

type datastream struct {
	obj *Object
	id  string
}

func (d *datastream) ID() string {
	return d.id
}

func (d *datastream) Content(_ context.Context) ([]byte, error) {
	d.obj.mu.RLock()
	defer d.obj.mu.RUnlock()
	content, ok := d.obj.streams[d.id]
	if !ok {
		return nil, ports.ErrDatastreamNotFound
	}
	return append([]byte(nil), content...), nil
}

func (d *datastream) SetContent(_ context.Context, content []byte) error {
	d.obj.mu.Lock()
	defer d.obj.mu.Unlock()
	if _, ok := d.obj.streams[d.id]; !ok {
		return ports.ErrDatastreamNotFound
	}
	d.obj.streams[d.id] = append([]byte(nil), content...)
	return nil
}
