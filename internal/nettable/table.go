// Package nettable keeps a local copy of the driver station's key table in sync over
// socket.io.
package nettable

import (
	"errors"
	"sync"
	"time"

	"github.com/Speshl/gorrc_tank/internal/models"
)

var ErrNotEstablished = errors.New("key table not established")

// Table is a set of named boolean entries. It is established once the first update lands.
type Table struct {
	lock sync.RWMutex

	entries     map[string]bool
	established bool
	expired     bool

	buttonMasks []uint32

	lastTimeStamp  int64
	lastUpdateTime time.Time
}

// Entry is a handle to one named value. It can be taken before the value is ever published.
type Entry struct {
	table *Table
	name  string
}

func NewTable() *Table {
	return &Table{
		entries:     make(map[string]bool, len(models.KeyNames)),
		buttonMasks: BuildButtonMasks(),
	}
}

func (t *Table) Entry(name string) *Entry {
	return &Entry{
		table: t,
		name:  name,
	}
}

func (e *Entry) Name() string {
	return e.name
}

// Boolean returns the published value, or defaultValue when the entry was never published.
func (e *Entry) Boolean(defaultValue bool) bool {
	e.table.lock.RLock()
	defer e.table.lock.RUnlock()

	value, ok := e.table.entries[e.name]
	if !ok {
		return defaultValue
	}
	return value
}

func (t *Table) Established() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.established
}

// Update applies a key state received at now. Updates older than the last applied one are
// dropped and false is returned.
func (t *Table) Update(state models.KeyState, now time.Time) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if state.TimeStamp != 0 && state.TimeStamp < t.lastTimeStamp {
		return false
	}

	bits := ParseButtons(state.BitKeys, t.buttonMasks)
	for i, name := range models.KeyNames {
		t.entries[name] = bits[i]
	}
	for name, value := range state.Entries {
		t.entries[name] = value
	}

	if state.TimeStamp != 0 {
		t.lastTimeStamp = state.TimeStamp
	}
	t.lastUpdateTime = now
	t.established = true
	t.expired = false
	return true
}

// Expire releases every key when nothing has arrived for longer than timeout. It returns
// true only on the call that did the release.
func (t *Table) Expire(now time.Time, timeout time.Duration) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.established || t.expired || now.Sub(t.lastUpdateTime) <= timeout {
		return false
	}

	for name := range t.entries {
		t.entries[name] = false
	}
	t.expired = true
	return true
}

func ParseButtons(bitButton uint32, masks []uint32) []bool {
	returnvalue := make([]bool, 32)
	for i := range masks {
		returnvalue[i] = ((bitButton & masks[i]) != 0) //Check if bitbutton and mask both have bits in same place
	}
	return returnvalue
}

// Creates 32 uints each with only 1 bit. 1,2,4,8,16,32...
func BuildButtonMasks() []uint32 {
	buttonMasks := make([]uint32, 32)
	for i := 0; i < 32; i++ {
		buttonMasks[i] = uint32(1) << i
	}
	return buttonMasks
}
