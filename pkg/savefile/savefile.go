// Package savefile assembles a complete TESV_SAVEGAME container: header,
// screenshot, compressed body and every table inside it.
//
// Decoding is a single synchronous pass over a resident buffer. Each call
// owns its cursors and diagnostics, so concurrent decodes of different
// buffers share nothing.
package savefile

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/globaldata"
	"github.com/eunmann/tesv-save/pkg/membudget"
	"github.com/eunmann/tesv-save/pkg/wire"
)

// Decode stages, attached to errors and warnings.
const (
	StageMagic              = "magic"
	StageHeader             = "header"
	StageScreenshot         = "screenshot"
	StageBody               = "body"
	StagePlugins            = "plugins"
	StageLocationTable      = "location_table"
	StageGlobalData1        = "global_data_1"
	StageGlobalData2        = "global_data_2"
	StageChangeForms        = "change_forms"
	StageGlobalData3        = "global_data_3"
	StageFormIDArray        = "form_id_array"
	StageVisitedWorldspaces = "visited_worldspaces"
	StageUnknownTable3      = "unknown_table_3"
)

// SaveFile is a fully decoded save.
type SaveFile struct {
	Header          Header     `json:"header"`
	Screenshot      Screenshot `json:"screenshot"`
	UncompressedLen uint32     `json:"uncompressed_len"`
	CompressedLen   uint32     `json:"compressed_len"`
	FormVersion     uint8      `json:"form_version"`
	Plugins         []string   `json:"plugins"`
	LightPlugins    []string   `json:"light_plugins"`

	LocationTable LocationTable `json:"location_table"`

	GlobalData1 []globaldata.Record     `json:"global_data_1"`
	GlobalData2 []globaldata.Record     `json:"global_data_2"`
	ChangeForms []changeform.ChangeForm `json:"change_forms"`
	GlobalData3 []globaldata.Record     `json:"global_data_3"`

	// FormIDs maps table-index references to form IDs.
	FormIDs            []uint32 `json:"form_ids"`
	VisitedWorldspaces []uint32 `json:"visited_worldspaces"`
	UnknownTable3      []string `json:"unknown_table_3"`

	Warnings []wire.Warning `json:"warnings"`
}

// Options tunes a decode.
type Options struct {
	// Budget, when set, must cover the declared uncompressed body length
	// before an LZ4 body is inflated.
	Budget *membudget.Budget
}

// Decode decodes buf with default options.
func Decode(buf []byte) (*SaveFile, error) {
	return DecodeWithOptions(buf, Options{})
}

// DecodeWithOptions decodes a complete save container. Format violations
// abort the decode and return a *wire.DecodeError naming the stage;
// recoverable anomalies are collected in SaveFile.Warnings.
func DecodeWithOptions(buf []byte, opts Options) (*SaveFile, error) {
	d := &decoder{diag: wire.NewDiagnostics(), opts: opts}
	sf, err := d.decode(buf)
	if err != nil {
		return nil, wire.WithStage(d.diag.Stage(), err)
	}
	sf.Warnings = d.diag.Warnings()
	return sf, nil
}

type decoder struct {
	diag *wire.Diagnostics
	opts Options
	sf   SaveFile
}

func (d *decoder) stage(name string) {
	d.diag.SetStage(name)
}

func (d *decoder) decode(buf []byte) (*SaveFile, error) {
	c := wire.NewCursor(buf, d.diag)

	d.stage(StageMagic)
	magic, err := c.Bytes(len(Magic))
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, wire.NewDecodeError(wire.ErrMagicMismatch, 0, strconv.Quote(Magic), strconv.Quote(string(magic)))
	}

	d.stage(StageHeader)
	if _, err := c.U32(); err != nil { // header size
		return nil, err
	}
	if d.sf.Header, err = readHeader(c); err != nil {
		return nil, err
	}

	d.stage(StageScreenshot)
	if err := d.readScreenshot(c); err != nil {
		return nil, err
	}

	d.stage(StageBody)
	body, err := d.readBody(c)
	if err != nil {
		return nil, err
	}

	if err := d.decodeBody(wire.NewCursor(body, d.diag)); err != nil {
		return nil, err
	}
	return &d.sf, nil
}

func (d *decoder) readScreenshot(c *wire.Cursor) error {
	h := &d.sf.Header
	size := h.ScreenshotSize()
	if size > uint64(c.Remaining()) {
		return wire.NewDecodeError(wire.ErrOutOfBounds, c.Offset(),
			strconv.FormatUint(size, 10)+" bytes", strconv.Itoa(c.Remaining())+" bytes")
	}
	data, err := c.Bytes(int(size))
	if err != nil {
		return err
	}
	d.sf.Screenshot = Screenshot{Width: h.ShotWidth, Height: h.ShotHeight, Data: data}
	return nil
}

// readBody reads the two body lengths and returns the decompressed body.
func (d *decoder) readBody(c *wire.Cursor) ([]byte, error) {
	var err error
	if d.sf.UncompressedLen, err = c.U32(); err != nil {
		return nil, err
	}
	if d.sf.CompressedLen, err = c.U32(); err != nil {
		return nil, err
	}

	code := d.sf.Header.Compression
	if !code.Supported() {
		return nil, wire.NewDecodeError(wire.ErrUnsupportedCompression, c.Offset(), "compression 0 or 2", code.String())
	}

	bodyOff := c.Offset()
	if int64(d.sf.CompressedLen) != int64(c.Remaining()) {
		c.Warn(wire.WarnBodyLength, "compressed length field is %d but %d bytes remain",
			d.sf.CompressedLen, c.Remaining())
	}
	src := c.Rest()

	if code == CompressionLZ4 && d.opts.Budget != nil {
		need := uint64(d.sf.UncompressedLen)
		if !d.opts.Budget.TryReserve(need) {
			return nil, wire.NewDecodeError(wire.ErrBudgetExceeded, bodyOff,
				"at most "+strconv.FormatUint(d.opts.Budget.Available(), 10)+" bytes",
				strconv.FormatUint(need, 10)+" bytes")
		}
		defer d.opts.Budget.Release(need)
	}

	body, err := DecompressBody(code, src, d.sf.UncompressedLen)
	if err != nil {
		var de *wire.DecodeError
		if errors.As(err, &de) {
			de.Offset = bodyOff
		}
		return nil, err
	}
	return body, nil
}

// decodeBody walks the decompressed body. Offsets in errors and warnings
// from here on are body-relative.
func (d *decoder) decodeBody(c *wire.Cursor) error {
	sf := &d.sf
	var err error

	d.stage(StagePlugins)
	if sf.FormVersion, err = c.U8(); err != nil {
		return err
	}
	if _, err = c.U32(); err != nil { // plugin info size
		return err
	}
	pluginCount, err := c.U8()
	if err != nil {
		return err
	}
	if sf.Plugins, err = c.WStrings(uint32(pluginCount)); err != nil {
		return err
	}
	lightCount, err := c.U16()
	if err != nil {
		return err
	}
	if sf.LightPlugins, err = c.WStrings(uint32(lightCount)); err != nil {
		return err
	}

	d.stage(StageLocationTable)
	if sf.LocationTable, err = readLocationTable(c); err != nil {
		return err
	}
	if err = c.Skip(ReservedAfterLocationTable); err != nil {
		return err
	}
	lt := &sf.LocationTable
	var obs SectionOffsets

	d.stage(StageGlobalData1)
	obs.GlobalDataTable1 = c.Offset()
	if sf.GlobalData1, err = globaldata.ReadTable(c, lt.GlobalDataTable1Count); err != nil {
		return err
	}

	d.stage(StageGlobalData2)
	obs.GlobalDataTable2 = c.Offset()
	if sf.GlobalData2, err = globaldata.ReadTable(c, lt.GlobalDataTable2Count); err != nil {
		return err
	}

	d.stage(StageChangeForms)
	obs.ChangeForms = c.Offset()
	if sf.ChangeForms, err = changeform.ReadAll(c, lt.ChangeFormCount); err != nil {
		return err
	}

	d.stage(StageGlobalData3)
	obs.GlobalDataTable3 = c.Offset()
	if sf.GlobalData3, err = globaldata.ReadTable(c, uint32(lt.GlobalData3Records())); err != nil {
		return err
	}

	d.stage(StageFormIDArray)
	obs.FormIDArrayCount = c.Offset()
	if sf.FormIDs, err = readU32Array(c); err != nil {
		return err
	}

	d.stage(StageVisitedWorldspaces)
	if sf.VisitedWorldspaces, err = readU32Array(c); err != nil {
		return err
	}

	d.stage(StageUnknownTable3)
	obs.UnknownTable3 = c.Offset()
	if _, err = c.U32(); err != nil { // table size
		return err
	}
	n, err := c.U32()
	if err != nil {
		return err
	}
	if sf.UnknownTable3, err = c.WStrings(n); err != nil {
		return err
	}

	d.stage(StageLocationTable)
	for _, m := range lt.Check(obs) {
		d.diag.Warn(m.BodyOffset, wire.WarnLocationMismatch, "%s", m)
	}
	return nil
}

func readU32Array(c *wire.Cursor) ([]uint32, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	return c.U32s(n)
}

// Clean reports whether the decode produced no warnings.
func (sf *SaveFile) Clean() bool {
	return len(sf.Warnings) == 0
}

// Summary is a size overview of a decoded save.
type Summary struct {
	PlayerName         string           `json:"player_name"`
	PlayerLevel        uint32           `json:"player_level"`
	PlayerLocation     string           `json:"player_location"`
	Compression        string           `json:"compression"`
	ScreenshotBytes    int              `json:"screenshot_bytes"`
	BodyBytes          uint32           `json:"body_bytes"`
	Plugins            int              `json:"plugins"`
	LightPlugins       int              `json:"light_plugins"`
	GlobalData1        int              `json:"global_data_1"`
	GlobalData2        int              `json:"global_data_2"`
	GlobalData3        int              `json:"global_data_3"`
	ChangeForms        changeform.Stats `json:"change_forms"`
	FormIDs            int              `json:"form_ids"`
	VisitedWorldspaces int              `json:"visited_worldspaces"`
	UnknownTable3      int              `json:"unknown_table_3"`
	Warnings           int              `json:"warnings"`
}

// Summary returns table sizes for display.
func (sf *SaveFile) Summary() Summary {
	return Summary{
		PlayerName:         sf.Header.PlayerName,
		PlayerLevel:        sf.Header.PlayerLevel,
		PlayerLocation:     sf.Header.PlayerLocation,
		Compression:        sf.Header.Compression.String(),
		ScreenshotBytes:    len(sf.Screenshot.Data),
		BodyBytes:          sf.UncompressedLen,
		Plugins:            len(sf.Plugins),
		LightPlugins:       len(sf.LightPlugins),
		GlobalData1:        len(sf.GlobalData1),
		GlobalData2:        len(sf.GlobalData2),
		GlobalData3:        len(sf.GlobalData3),
		ChangeForms:        changeform.Summarize(sf.ChangeForms),
		FormIDs:            len(sf.FormIDs),
		VisitedWorldspaces: len(sf.VisitedWorldspaces),
		UnknownTable3:      len(sf.UnknownTable3),
		Warnings:           len(sf.Warnings),
	}
}

// RuntimeFormIDBase is the high byte the engine gives runtime-created forms.
const RuntimeFormIDBase = 0xFF000000

// ResolveFormID maps a reference to a form ID. Table-index references go
// through the form-ID array; ok is false when the index is out of range or
// the reference kind is unrecognized.
func (sf *SaveFile) ResolveFormID(r wire.Ref) (uint32, bool) {
	switch r.Kind {
	case wire.RefTableIndex:
		if int64(r.Value) >= int64(len(sf.FormIDs)) {
			return 0, false
		}
		return sf.FormIDs[r.Value], true
	case wire.RefAuthoritative:
		return r.Value, true
	case wire.RefRuntimeCreated:
		return RuntimeFormIDBase | r.Value, true
	}
	return 0, false
}

// Records returns the three global data tables in decode order.
func (sf *SaveFile) Records() [][]globaldata.Record {
	return [][]globaldata.Record{sf.GlobalData1, sf.GlobalData2, sf.GlobalData3}
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (level %d) at %s: %d change forms, %d+%d+%d global records, %d warnings",
		s.PlayerName, s.PlayerLevel, s.PlayerLocation, s.ChangeForms.Total,
		s.GlobalData1, s.GlobalData2, s.GlobalData3, s.Warnings)
}
