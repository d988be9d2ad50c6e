package imm

import (
	"cmp"
	"hash/maphash"
	"math"
)

// Equal reports deep structural equality.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return false
		}
		if x == y || (x.Len() == 0 && y.Len() == 0) {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Range(func(key string, value Value) bool {
			other, has := y.Get(key)
			equal = has && Equal(value, other)
			return equal
		})
		return equal
	case *Seq:
		y, ok := b.(*Seq)
		if !ok {
			return false
		}
		if x == y || (x.Len() == 0 && y.Len() == 0) {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Range(func(i int, value Value) bool {
			equal = Equal(value, y.At(i))
			return equal
		})
		return equal
	}
	switch b.(type) {
	case *Map, *Seq:
		return false
	}
	return a == b
}

func rank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	case *Seq:
		return 4
	case *Map:
		return 5
	}
	return 6
}

// Compare defines a total order over values:
// null < bool < number < string < sequence < map.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return cmp.Compare(x, b.(string))
	case *Seq:
		y := b.(*Seq)
		n := min(x.Len(), y.Len())
		for i := 0; i < n; i++ {
			if c := Compare(x.At(i), y.At(i)); c != 0 {
				return c
			}
		}
		return cmp.Compare(x.Len(), y.Len())
	case *Map:
		y := b.(*Map)
		kx, ky := x.Keys(), y.Keys()
		n := min(len(kx), len(ky))
		for i := 0; i < n; i++ {
			if c := cmp.Compare(kx[i], ky[i]); c != 0 {
				return c
			}
			vx, _ := x.Get(kx[i])
			vy, _ := y.Get(ky[i])
			if c := Compare(vx, vy); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(kx), len(ky))
	}
	return 0
}

var seed = maphash.MakeSeed()

// Hash returns a structural hash. Equal values hash equally within the
// running process.
func Hash(v Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	writeHash(&h, v)
	return h.Sum64()
}

func writeHash(h *maphash.Hash, v Value) {
	h.WriteByte(byte(rank(v)))
	switch x := v.(type) {
	case bool:
		if x {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case float64:
		bits := math.Float64bits(x)
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	case string:
		h.WriteString(x)
		h.WriteByte(0)
	case *Seq:
		x.Range(func(_ int, item Value) bool {
			writeHash(h, item)
			return true
		})
		h.WriteByte(0xff)
	case *Map:
		x.Range(func(key string, item Value) bool {
			h.WriteString(key)
			h.WriteByte(0)
			writeHash(h, item)
			return true
		})
		h.WriteByte(0xff)
	}
}
