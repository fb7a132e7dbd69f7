// Package sysmem detects how much memory the process may use, for sizing
// the default decode budget.
package sysmem

// DefaultMemoryBytes is the fallback memory value (4 GB) used when
// platform-specific detection fails or is unsupported.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result holds the result of memory detection.
type Result struct {
	// TotalBytes is the usable memory in bytes: physical RAM, or the
	// container limit when one is lower.
	TotalBytes uint64

	// Reliable indicates whether the value was obtained from
	// a platform-specific method (true) or is a fallback default (false).
	Reliable bool

	// Limited is set when a container memory limit lowered TotalBytes.
	Limited bool
}

// Total returns the usable system memory.
// If platform-specific detection fails or is unsupported,
// it returns DefaultMemoryBytes with Reliable=false.
func Total() Result {
	bytes, ok := totalSystemMemory()
	if !ok || bytes == 0 {
		return Result{
			TotalBytes: DefaultMemoryBytes,
			Reliable:   false,
		}
	}
	res := Result{TotalBytes: bytes, Reliable: true}
	if limit, ok := containerLimit(); ok && limit < res.TotalBytes {
		res.TotalBytes = limit
		res.Limited = true
	}
	return res
}
