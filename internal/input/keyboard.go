package input

import (
	"github.com/Speshl/gorrc_tank/internal/mixer"
	"github.com/Speshl/gorrc_tank/internal/nettable"
)

// Keys holds entry handles for the eight relay keys, taken once at probe time.
type Keys struct {
	up, down, left, right *nettable.Entry
	w, a, s, d            *nettable.Entry
}

func NewKeys(table *nettable.Table) *Keys {
	if table == nil {
		return nil
	}
	return &Keys{
		up:    table.Entry("up"),
		down:  table.Entry("down"),
		left:  table.Entry("left"),
		right: table.Entry("right"),
		w:     table.Entry("w"),
		a:     table.Entry("a"),
		s:     table.Entry("s"),
		d:     table.Entry("d"),
	}
}

// Flags reads the current key state. Unpublished keys read as released.
func (k *Keys) Flags() mixer.KeyFlags {
	return mixer.KeyFlags{
		Up:    k.up.Boolean(false),
		Down:  k.down.Boolean(false),
		Left:  k.left.Boolean(false),
		Right: k.right.Boolean(false),
		W:     k.w.Boolean(false),
		A:     k.a.Boolean(false),
		S:     k.s.Boolean(false),
		D:     k.d.Boolean(false),
	}
}
