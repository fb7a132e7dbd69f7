package wire

// Optional holds a field that only some save versions write.
type Optional[T any] struct {
	Value   T    `json:"value,omitempty"`
	Present bool `json:"present"`
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// Bool8 is a boolean stored in one byte. Only 0 and 1 are recognized.
type Bool8 uint8

const (
	False Bool8 = 0
	True  Bool8 = 1
)

// Recognized reports whether the raw byte is 0 or 1.
func (b Bool8) Recognized() bool {
	return b <= True
}

// Bool reports whether the byte is exactly 1.
func (b Bool8) Bool() bool {
	return b == True
}
