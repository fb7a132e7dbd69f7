package globaldata

import "github.com/eunmann/tesv-save/pkg/wire"

// reader wraps a cursor with a sticky error so record decoders read as a
// flat list of fields. After the first failure every read is a no-op that
// returns the zero value.
type reader struct {
	c   *wire.Cursor
	err error
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U8()
	r.err = err
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U16()
	r.err = err
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U32()
	r.err = err
	return v
}

func (r *reader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.I32()
	r.err = err
	return v
}

func (r *reader) f32() wire.F32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.F32()
	r.err = err
	return v
}

func (r *reader) wstring() string {
	if r.err != nil {
		return ""
	}
	v, err := r.c.WString()
	r.err = err
	return v
}

func (r *reader) ref() wire.Ref {
	if r.err != nil {
		return wire.Ref{}
	}
	v, err := r.c.Ref()
	r.err = err
	return v
}

func (r *reader) bool8(field string) wire.Bool8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.Bool8(field)
	r.err = err
	return v
}

// count reads a variable-width count.
func (r *reader) count() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.Count()
	r.err = err
	return v
}

// refsVS reads a variable-width count followed by that many references.
func (r *reader) refsVS() []wire.Ref {
	return list(r, r.count(), 3, (*reader).ref)
}

// refsU32 reads a u32 count followed by that many references.
func (r *reader) refsU32() []wire.Ref {
	return list(r, r.u32(), 3, (*reader).ref)
}

func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	return r.c.Rest()
}

func (r *reader) optionalRest() wire.Optional[[]byte] {
	if r.err != nil {
		return wire.Optional[[]byte]{}
	}
	return r.c.OptionalRest()
}

// list decodes n elements of at least minSize bytes each with fn,
// stopping at the first error.
func list[T any](r *reader, n uint32, minSize int, fn func(*reader) T) []T {
	if r.err != nil {
		return nil
	}
	out := make([]T, 0, wire.CapHint(n, r.c.Remaining(), minSize))
	for i := uint32(0); i < n && r.err == nil; i++ {
		v := fn(r)
		if r.err == nil {
			out = append(out, v)
		}
	}
	if r.err != nil {
		return nil
	}
	return out
}
