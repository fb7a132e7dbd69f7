package globaldata

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/eunmann/tesv-save/pkg/wire"
)

type payload struct{ buf []byte }

func (p *payload) u8(v uint8) *payload { p.buf = append(p.buf, v); return p }
func (p *payload) u16(v uint16) *payload {
	p.buf = binary.LittleEndian.AppendUint16(p.buf, v)
	return p
}
func (p *payload) u32(v uint32) *payload {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
	return p
}
func (p *payload) f32(v float32) *payload {
	return p.u32(math.Float32bits(v))
}

// vs writes a one-byte variable-width count; v must be below 64.
func (p *payload) vs(v uint8) *payload { return p.u8(v << 2) }

func (p *payload) ref(b0, b1 byte) *payload { p.buf = append(p.buf, b0, b1, 0); return p }

func (p *payload) wstr(s string) *payload {
	p.u16(uint16(len(s)))
	p.buf = append(p.buf, s...)
	return p
}

func (p *payload) raw(b ...byte) *payload { p.buf = append(p.buf, b...); return p }

// record frames body as a global data record.
func (p *payload) record(t Type, body *payload) *payload {
	return p.u32(uint32(t)).u32(uint32(len(body.buf))).raw(body.buf...)
}

func decodeOne(t *testing.T, typ Type, body *payload) (Record, *wire.Diagnostics) {
	t.Helper()
	diag := wire.NewDiagnostics()
	c := wire.NewCursor(new(payload).record(typ, body).buf, diag)
	recs, err := ReadTable(c, 1)
	if err != nil {
		t.Fatalf("ReadTable(%s) failed: %v", typ, err)
	}
	if len(recs) != 1 {
		t.Fatalf("ReadTable returned %d records, want 1", len(recs))
	}
	if recs[0].Type() != typ {
		t.Errorf("Type() = %s, want %s", recs[0].Type(), typ)
	}
	return recs[0], diag
}

var authRef = wire.Ref{Kind: wire.RefAuthoritative, Value: 0x401212}

func TestReadTableMain(t *testing.T) {
	rec, _ := decodeOne(t, TypeMain, new(payload))
	if rec != (Empty{Tag: TypeMain}) {
		t.Errorf("record = %#v, want Empty{Main}", rec)
	}
}

func TestReadTableMainIgnoresPayload(t *testing.T) {
	rec, _ := decodeOne(t, TypeMain, new(payload).u32(7))
	if rec != (Empty{Tag: TypeMain}) {
		t.Errorf("record = %#v, want Empty{Main}", rec)
	}
}

func TestReadTableUnknownTag(t *testing.T) {
	diag := wire.NewDiagnostics()
	buf := new(payload).
		record(Type(9999), new(payload).raw(1, 2, 3)).
		record(TypeTimer, new(payload).u8(4).u8(5))
	recs, err := ReadTable(wire.NewCursor(buf.buf, diag), 2)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if recs[0] != (Empty{Tag: 9999}) {
		t.Errorf("recs[0] = %#v, want Empty{9999}", recs[0])
	}
	if recs[1] != (Timer{U1: 4, U2: 5}) {
		t.Errorf("recs[1] = %#v, want Timer{4, 5}", recs[1])
	}
	w := diag.Warnings()
	if len(w) != 1 || w[0].Kind != wire.WarnUnknownRecordType {
		t.Errorf("warnings = %v, want one unknown_record_type", w)
	}
}

func TestReadTableOverRead(t *testing.T) {
	// A Timer needs two bytes but the record declares one.
	buf := new(payload).u32(uint32(TypeTimer)).u32(1).u8(1).u8(2)
	_, err := ReadTable(wire.NewCursor(buf.buf, nil), 1)
	if !errors.Is(err, wire.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestReadTableUnderReadKeepsAlignment(t *testing.T) {
	buf := new(payload).
		record(TypeMenuControls, new(payload).u8(1).u8(2).raw(0xEE, 0xEE)).
		record(TypeTimer, new(payload).u8(3).u8(4))
	recs, err := ReadTable(wire.NewCursor(buf.buf, nil), 2)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if recs[1] != (Timer{U1: 3, U2: 4}) {
		t.Errorf("recs[1] = %#v, want Timer{3, 4}", recs[1])
	}
}

func TestReadTableTruncatedHeader(t *testing.T) {
	buf := new(payload).u32(uint32(TypeTimer)).u8(2)
	_, err := ReadTable(wire.NewCursor(buf.buf, nil), 1)
	if !errors.Is(err, wire.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestDecodeMiscStats(t *testing.T) {
	body := new(payload).u32(2).
		wstr("Locations Discovered").u8(0).u32(42).
		wstr("Odd").u8(9).u32(1)
	rec, diag := decodeOne(t, TypeMiscStats, body)
	stats := rec.(MiscStats).Stats
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if stats[0] != (MiscStat{Name: "Locations Discovered", Category: CategoryGeneral, Value: 42}) {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].Category.Recognized() {
		t.Errorf("category %d should be unrecognized", stats[1].Category)
	}
	if got := stats[1].Category.String(); got != "unrecognized(9)" {
		t.Errorf("Category.String() = %q", got)
	}
	if diag.Len() != 1 {
		t.Errorf("warnings = %d, want 1", diag.Len())
	}
}

func TestDecodePlayerLocation(t *testing.T) {
	base := func() *payload {
		return new(payload).u32(0xFF000010).ref(0x40, 0x12).
			u32(uint32(0xFFFFFFFF)).u32(3).ref(0x40, 0x12).
			f32(1.5).f32(-2).f32(100)
	}

	rec, _ := decodeOne(t, TypePlayerLocation, base())
	loc := rec.(PlayerLocation)
	if loc.NextObjectID != 0xFF000010 || loc.CoorX != -1 || loc.CoorY != 3 {
		t.Errorf("location = %+v", loc)
	}
	if loc.WorldSpace1 != authRef || loc.PosZ != 100 {
		t.Errorf("location = %+v", loc)
	}
	if loc.Trailing.Present {
		t.Error("Trailing should be absent")
	}

	rec, _ = decodeOne(t, TypePlayerLocation, base().raw(9, 9))
	if v, ok := rec.(PlayerLocation).Trailing.Get(); !ok || len(v) != 2 {
		t.Errorf("Trailing = %v, %v, want two bytes", v, ok)
	}
}

func TestDecodeTES(t *testing.T) {
	body := new(payload).
		vs(1).ref(0x40, 0x12).u16(7).
		u32(2).ref(0x40, 0x12).ref(0x40, 0x12).ref(0x40, 0x12).ref(0x40, 0x12).
		vs(1).ref(0x80, 0x00)
	rec, _ := decodeOne(t, TypeTES, body)
	tes := rec.(TES)
	if len(tes.Unknown0) != 1 || tes.Unknown0[0].Unknown != 7 {
		t.Errorf("Unknown0 = %+v", tes.Unknown0)
	}
	if len(tes.Unknown1) != 4 {
		t.Errorf("len(Unknown1) = %d, want 4", len(tes.Unknown1))
	}
	if len(tes.Unknown2) != 1 || tes.Unknown2[0].Kind != wire.RefRuntimeCreated {
		t.Errorf("Unknown2 = %v", tes.Unknown2)
	}
}

func TestDecodeCreatedObjects(t *testing.T) {
	body := new(payload).
		vs(1).ref(0x40, 0x12).u32(3).
		vs(2).
		ref(0x40, 0x12).f32(10).u32(30).u32(0).f32(55.5).
		ref(0x40, 0x12).f32(5).u32(0).u32(15).f32(1).
		vs(0).vs(0).vs(0)
	rec, _ := decodeOne(t, TypeCreatedObjects, body)
	co := rec.(CreatedObjects)
	if len(co.Weapons) != 1 || co.Weapons[0].TimesUsed != 3 {
		t.Fatalf("Weapons = %+v", co.Weapons)
	}
	effects := co.Weapons[0].Effects
	if len(effects) != 2 || effects[0].Price != 55.5 || effects[1].Area != 15 {
		t.Errorf("Effects = %+v", effects)
	}
	if len(co.Armour)+len(co.Potions)+len(co.Poisons) != 0 {
		t.Errorf("other tables should be empty: %+v", co)
	}
}

func TestDecodeProcessLists(t *testing.T) {
	body := new(payload).f32(1).f32(2).f32(3).u32(11).
		vs(1).
		u32(1).u32(4).u8(0).u32(0).u32(77).u8(0).u32(0).f32(12.5).
		ref(0x40, 0x12).ref(0x00, 0x00).ref(0x40, 0x12).ref(0x40, 0x12).
		vs(2).ref(0x40, 0x12).ref(0x40, 0x12).
		u32(1000).ref(0x40, 0x12).u8(1).u16(0)
	rec, diag := decodeOne(t, TypeProcessLists, body)
	pl := rec.(ProcessLists)
	if pl.NextNum != 11 || len(pl.Crimes) != 1 {
		t.Fatalf("ProcessLists = %+v", pl)
	}
	c := pl.Crimes[0]
	if c.CrimeType != CrimeMurder || c.CrimeType.String() != "Murder" {
		t.Errorf("CrimeType = %v, want Murder", c.CrimeType)
	}
	if c.SerialNum != 77 || c.Bounty != 1000 || !c.IsCleared.Bool() {
		t.Errorf("crime = %+v", c)
	}
	if c.CriminalID != (wire.Ref{Kind: wire.RefAuthoritative}) {
		t.Errorf("CriminalID = %v, want authoritative:0", c.CriminalID)
	}
	if len(c.Witnesses) != 2 {
		t.Errorf("len(Witnesses) = %d, want 2", len(c.Witnesses))
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected warnings: %v", diag.Warnings())
	}
}

var rtRef = wire.Ref{Kind: wire.RefRuntimeCreated, Value: 0x800101}

func TestDecodeListRecords(t *testing.T) {
	tests := []struct {
		typ  Type
		body *payload
		want Record
	}{
		{
			TypeGlobalVariables,
			new(payload).vs(2).ref(0x40, 0x12).f32(1.5).ref(0x80, 0x01).f32(-3),
			GlobalVariables{Vars: []GlobalVariable{{authRef, 1.5}, {rtRef, -3}}},
		},
		{
			TypeEffects,
			new(payload).vs(1).f32(0.25).f32(100).u32(7).ref(0x40, 0x12).f32(2).f32(4),
			Effects{
				ImageSpaceModifiers: []ImageSpaceModifier{{Strength: 0.25, Timestamp: 100, Unknown: 7, EffectID: authRef}},
				Unknown1:            2,
				Unknown2:            4,
			},
		},
		{
			TypeAudio,
			new(payload).ref(0x80, 0x01).vs(2).ref(0x40, 0x12).ref(0x80, 0x01).ref(0x40, 0x12),
			Audio{Unknown: rtRef, Tracks: []wire.Ref{authRef, rtRef}, BGM: authRef},
		},
		{
			TypeSkyCells,
			new(payload).vs(2).ref(0x40, 0x12).ref(0x80, 0x01).ref(0x80, 0x01).ref(0x40, 0x12),
			SkyCells{Cells: []SkyCell{{authRef, rtRef}, {rtRef, authRef}}},
		},
		{
			TypeActorCauses,
			new(payload).u32(42).vs(1).f32(1).f32(2).f32(3).u32(9).ref(0x80, 0x01),
			ActorCauses{NextNum: 42, Causes: []ActorCause{{X: 1, Y: 2, Z: 3, SerialNum: 9, ActorID: rtRef}}},
		},
		{
			TypeDetectionManager,
			new(payload).vs(2).ref(0x40, 0x12).u32(1).u32(2).ref(0x80, 0x01).u32(3).u32(4),
			DetectionManager{Entries: []DetectionEntry{{authRef, 1, 2}, {rtRef, 3, 4}}},
		},
		{
			TypeLocationMetaData,
			new(payload).vs(1).ref(0x40, 0x12).u32(0xDEADBEEF),
			LocationMetaData{Entries: []LocationMetaEntry{{authRef, 0xDEADBEEF}}},
		},
		{
			TypeMagicFavorites,
			new(payload).vs(1).ref(0x40, 0x12).vs(2).ref(0x80, 0x01).ref(0x40, 0x12),
			MagicFavorites{Favorites: []wire.Ref{authRef}, HotKeys: []wire.Ref{rtRef, authRef}},
		},
		{
			TypeIngredientShared,
			new(payload).u32(2).ref(0x40, 0x12).ref(0x80, 0x01).ref(0x80, 0x01).ref(0x80, 0x01),
			IngredientShared{Pairs: []IngredientPair{{authRef, rtRef}, {rtRef, rtRef}}},
		},
		{
			TypeAnimObjects,
			new(payload).u32(1).ref(0x80, 0x01).ref(0x40, 0x12).u8(5),
			AnimObjects{Objects: []AnimObject{{Actor: rtRef, Anim: authRef, U1: 5}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			diag := wire.NewDiagnostics()
			span := wire.NewCursor(tt.body.buf, diag)
			rec, err := Decode(tt.typ, span)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(rec, tt.want) {
				t.Errorf("record = %+v, want %+v", rec, tt.want)
			}
			if span.Remaining() != 0 {
				t.Errorf("%d bytes left unread", span.Remaining())
			}
			if diag.Len() != 0 {
				t.Errorf("unexpected warnings: %v", diag.Warnings())
			}
		})
	}
}

func TestDecodeListRecordsTruncated(t *testing.T) {
	// Each count promises one more element than the span holds.
	tests := []struct {
		typ  Type
		body *payload
	}{
		{TypeGlobalVariables, new(payload).vs(2).ref(0x40, 0x12).f32(1)},
		{TypeSkyCells, new(payload).vs(1).ref(0x40, 0x12)},
		{TypeIngredientShared, new(payload).u32(3).ref(0x40, 0x12).ref(0x40, 0x12)},
		{TypeAnimObjects, new(payload).u32(0xFFFFFFFF).ref(0x40, 0x12).ref(0x40, 0x12).u8(1)},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			_, err := Decode(tt.typ, wire.NewCursor(tt.body.buf, nil))
			if !errors.Is(err, wire.ErrOutOfBounds) {
				t.Fatalf("err = %v, want ErrOutOfBounds", err)
			}
		})
	}
}

// crimeBody builds a ProcessLists payload holding one crime.
func crimeBody(crimeType uint32, isCleared uint8) *payload {
	return new(payload).f32(0).f32(0).f32(0).u32(1).
		vs(1).
		u32(0).u32(crimeType).u8(0).u32(1).u32(5).u8(0).u32(0).f32(1).
		ref(0x40, 0x12).ref(0x40, 0x12).ref(0x40, 0x12).ref(0x40, 0x12).
		vs(0).
		u32(40).ref(0x40, 0x12).u8(isCleared).u16(0)
}

func TestDecodeCrimeUnrecognizedValues(t *testing.T) {
	tests := []struct {
		name      string
		crimeType uint32
		isCleared uint8
		check     func(t *testing.T, c Crime)
	}{
		{
			name:      "crime type above six",
			crimeType: 7,
			isCleared: 0,
			check: func(t *testing.T, c Crime) {
				if c.CrimeType.Recognized() || c.CrimeType != 7 {
					t.Errorf("CrimeType = %v, want unrecognized 7", c.CrimeType)
				}
				if c.CrimeType.String() != "unrecognized(7)" {
					t.Errorf("CrimeType.String() = %q", c.CrimeType.String())
				}
			},
		},
		{
			name:      "is cleared above one",
			crimeType: uint32(CrimeTheft),
			isCleared: 2,
			check: func(t *testing.T, c Crime) {
				if c.IsCleared.Recognized() || c.IsCleared != 2 || c.IsCleared.Bool() {
					t.Errorf("IsCleared = %v, want unrecognized 2", c.IsCleared)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := wire.NewDiagnostics()
			span := wire.NewCursor(crimeBody(tt.crimeType, tt.isCleared).buf, diag)
			rec, err := Decode(TypeProcessLists, span)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if span.Remaining() != 0 {
				t.Errorf("%d bytes left unread", span.Remaining())
			}
			pl := rec.(ProcessLists)
			if len(pl.Crimes) != 1 {
				t.Fatalf("len(Crimes) = %d, want 1", len(pl.Crimes))
			}
			tt.check(t, pl.Crimes[0])
			if pl.Crimes[0].SerialNum != 5 || pl.Crimes[0].Bounty != 40 {
				t.Errorf("crime fields misaligned: %+v", pl.Crimes[0])
			}
			w := diag.Warnings()
			if len(w) != 1 || w[0].Kind != wire.WarnUnrecognizedValue {
				t.Errorf("warnings = %v, want one unrecognized_value", w)
			}
		})
	}
}

func TestDecodeQuestStaticData(t *testing.T) {
	body := new(payload).
		u32(1).u32(5).f32(0.5).u32(3).
		u32(3).u32(99).
		u32(1).ref(0x40, 0x12).
		u32(8).ref(0x80, 0x01).
		u32(0).
		u32(1).ref(0x40, 0x12).
		u32(0).u32(0).
		vs(1).ref(0x40, 0x12).vs(1).u32(6).u32(7).
		u8(1)
	rec, diag := decodeOne(t, TypeQuestStaticData, body)
	q := rec.(QuestStaticData)
	if len(q.U0) != 1 || len(q.U1) != 0 {
		t.Fatalf("QuestStaticData = %+v", q)
	}
	items := q.U0[0].Items
	want := []QuestRunItem{
		{Type: 3, Kind: QuestItemU32, Value: 99},
		{Type: 1, Kind: QuestItemRef, Ref: authRef},
		{Type: 8, Kind: QuestItemUnrecognized, Ref: wire.Ref{Kind: wire.RefRuntimeCreated, Value: 0x800101}},
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}
	if len(q.U2) != 1 || len(q.U5) != 1 || q.U5[0].Pairs[0] != (QuestStaticPair{6, 7}) || q.U6 != 1 {
		t.Errorf("QuestStaticData = %+v", q)
	}
	if diag.Len() != 1 || diag.Warnings()[0].Kind != wire.WarnUnrecognizedValue {
		t.Errorf("warnings = %v, want one unrecognized_value", diag.Warnings())
	}
}

func TestDecodeWeatherTail(t *testing.T) {
	body := new(payload)
	for range 6 {
		body.ref(0x40, 0x12)
	}
	body.f32(1).f32(2).f32(0.5)
	for range 6 {
		body.u32(0)
	}
	body.f32(0).u32(0).u8(WeatherFlagUnknown9).raw(1, 2, 3, 4)

	rec, _ := decodeOne(t, TypeWeather, body)
	w := rec.(Weather)
	if w.Flags != WeatherFlagUnknown9 || w.WeatherPct != 0.5 {
		t.Errorf("Weather = %+v", w)
	}
	if v, ok := w.Tail.Get(); !ok || len(v) != 4 {
		t.Errorf("Tail = %v, %v, want four bytes", v, ok)
	}
}

func TestDecodeSmallRecords(t *testing.T) {
	tests := []struct {
		typ  Type
		body *payload
		want Record
	}{
		{TypeStoryTeller, new(payload).u8(1), StoryTeller{Flag: wire.True}},
		{TypePlayerControls, new(payload).u8(1).u8(2).u8(3).u16(4).u8(5), PlayerControls{1, 2, 3, 4, 5}},
		{TypeMenuControls, new(payload).u8(1).u8(0), MenuControls{1, 0}},
		{TypeMenuTopicManager, new(payload).ref(0x40, 0x12).ref(0x40, 0x12), MenuTopicManager{authRef, authRef}},
		{TypeTimer, new(payload).u8(9).u8(8), Timer{9, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			rec, _ := decodeOne(t, tt.typ, tt.body)
			if rec != tt.want {
				t.Errorf("record = %#v, want %#v", rec, tt.want)
			}
		})
	}
}

func TestDecodeOpaque(t *testing.T) {
	for _, typ := range []Type{TypeCombat, TypeUnknown104, TypeTempEffects, TypePapyrus, TypeSynchronizedAnimations} {
		rec, _ := decodeOne(t, typ, new(payload).raw(1, 2, 3))
		op, ok := rec.(Opaque)
		if !ok || len(op.Data) != 3 {
			t.Errorf("%s: record = %#v, want three opaque bytes", typ, rec)
		}
	}
}

func TestDecodeInterface(t *testing.T) {
	body := new(payload).u32(2).u32(10).u32(11).u8(1).
		vs(1).ref(0x40, 0x12).vs(0).vs(0).u8(0)
	rec, _ := decodeOne(t, TypeInterface, body)
	in := rec.(Interface)
	if len(in.ShownHelpMessages) != 2 || in.ShownHelpMessages[1] != 11 {
		t.Errorf("ShownHelpMessages = %v", in.ShownHelpMessages)
	}
	if len(in.LastUsedWeapons) != 1 || in.Trailing.Present {
		t.Errorf("Interface = %+v", in)
	}
}

func TestDecodeStoryEventManager(t *testing.T) {
	rec, _ := decodeOne(t, TypeStoryEventManager, new(payload).u32(1).vs(2).raw(7, 7, 7))
	sem := rec.(StoryEventManager)
	if sem.Count != 2 {
		t.Errorf("Count = %d, want 2", sem.Count)
	}
	if v, ok := sem.Entries.Get(); !ok || len(v) != 3 {
		t.Errorf("Entries = %v, %v", v, ok)
	}
}

func TestTypeString(t *testing.T) {
	if TypeQuestStaticData.String() != "QuestStaticData" {
		t.Errorf("String() = %q", TypeQuestStaticData.String())
	}
	if Type(42).String() != "Type(42)" {
		t.Errorf("String() = %q", Type(42).String())
	}
	if !TypeMain.Known() || Type(42).Known() {
		t.Error("Known() mismatch")
	}
}
