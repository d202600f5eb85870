package domain

import (
	"runtime"
	"sync"
)

// Data is a logical buffer handle. Ownership follows ordinary Go references:
// once the last holder drops its handle the garbage collector reclaims it and
// the retirer, if one was installed, fires exactly once.
type Data struct {
	id   DataID
	cell *retireCell
}

// retireCell is kept apart from Data so that a cleanup can reach it without
// keeping the Data itself alive.
type retireCell struct {
	mu      sync.Mutex
	id      DataID
	retirer func(DataID)
	dead    bool
	fired   bool
}

// NewData creates a handle for the given id.
func NewData(id DataID) *Data {
	d := &Data{id: id, cell: &retireCell{id: id}}
	runtime.AddCleanup(d, func(c *retireCell) { c.release() }, d.cell)
	return d
}

// ID returns the buffer id.
func (d *Data) ID() DataID {
	return d.id
}

// SetRetirer installs the callback fired when the handle is released.
// Installing a retirer on an already released handle fires it immediately.
func (d *Data) SetRetirer(fn func(DataID)) {
	c := d.cell
	c.mu.Lock()
	c.retirer = fn
	dead := c.dead
	c.mu.Unlock()
	if dead {
		c.fire()
	}
}

// Retire releases the handle explicitly, without waiting for collection.
func (d *Data) Retire() {
	d.cell.release()
}

// Retired reports whether the retirer has fired.
func (d *Data) Retired() bool {
	d.cell.mu.Lock()
	defer d.cell.mu.Unlock()
	return d.cell.fired
}

func (c *retireCell) release() {
	c.mu.Lock()
	c.dead = true
	c.mu.Unlock()
	c.fire()
}

func (c *retireCell) fire() {
	c.mu.Lock()
	if c.fired || c.retirer == nil {
		c.mu.Unlock()
		return
	}
	c.fired = true
	fn := c.retirer
	c.retirer = nil
	c.mu.Unlock()
	fn(c.id)
}

// Result is the value produced by an executed node.
type Result interface {
	// Datas returns every Data handle the result transitively carries.
	Datas() []*Data
}

// TaskCarrier is implemented by results that know which tasks produced them.
// Collectives derive their contributing tasks from it.
type TaskCarrier interface {
	Tasks() []TaskID
}
