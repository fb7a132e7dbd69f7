package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// F32 is a stored 32-bit float. Saves hold undocumented floats that may be
// NaN or infinite, so those are written to JSON as the strings "NaN",
// "+Inf" and "-Inf" instead of failing the encode.
type F32 float32

// MarshalJSON encodes finite values as numbers and non-finite values as strings.
func (f F32) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

// UnmarshalJSON accepts a number or one of the strings MarshalJSON writes.
func (f *F32) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*f = F32(math.NaN())
		case "+Inf":
			*f = F32(math.Inf(1))
		case "-Inf":
			*f = F32(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float %q", s)
		}
		return nil
	}
	var v float32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = F32(v)
	return nil
}
