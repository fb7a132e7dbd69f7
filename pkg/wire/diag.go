package wire

import "fmt"

// WarningKind classifies a recoverable decode anomaly.
type WarningKind string

const (
	// WarnInvalidVarInt marks a varint with width tag 3, decoded as zero.
	WarnInvalidVarInt WarningKind = "invalid_varint"
	// WarnInvalidText marks a length-prefixed string that is not valid UTF-8.
	WarnInvalidText WarningKind = "invalid_text"
	// WarnUnknownRecordType marks a global data tag with no registered decoder.
	WarnUnknownRecordType WarningKind = "unknown_record_type"
	// WarnUnrecognizedValue marks an enumerated field outside its known range.
	WarnUnrecognizedValue WarningKind = "unrecognized_value"
	// WarnLocationMismatch marks a location table offset that disagrees with
	// where the section was actually found.
	WarnLocationMismatch WarningKind = "location_mismatch"
	// WarnBodyLength marks a compressed body length that disagrees with the
	// bytes remaining in the file.
	WarnBodyLength WarningKind = "body_length"
)

// Warning is one recoverable anomaly found during decode.
type Warning struct {
	Stage  string      `json:"stage"`
	Offset int         `json:"offset"`
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s@%d %s: %s", w.Stage, w.Offset, w.Kind, w.Detail)
}

// Diagnostics collects warnings for a single decode. It is not safe for
// concurrent use; each decode owns its own collector.
type Diagnostics struct {
	stage    string
	warnings []Warning
}

// NewDiagnostics returns an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// SetStage sets the stage name attached to subsequent warnings.
func (d *Diagnostics) SetStage(stage string) {
	d.stage = stage
}

// Stage returns the current stage name.
func (d *Diagnostics) Stage() string {
	return d.stage
}

// Warn records a warning at offset.
func (d *Diagnostics) Warn(offset int, kind WarningKind, format string, args ...any) {
	d.warnings = append(d.warnings, Warning{
		Stage:  d.stage,
		Offset: offset,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Warnings returns a copy of the collected warnings.
func (d *Diagnostics) Warnings() []Warning {
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Len returns the number of collected warnings.
func (d *Diagnostics) Len() int {
	return len(d.warnings)
}
