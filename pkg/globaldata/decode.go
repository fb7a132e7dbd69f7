package globaldata

import (
	"fmt"

	"github.com/eunmann/tesv-save/pkg/wire"
)

type decodeFunc func(r *reader) Record

// recordHeaderSize is the type and length prefix of every record.
const recordHeaderSize = 8

var registry = map[Type]decodeFunc{
	TypeMiscStats:              decodeMiscStats,
	TypePlayerLocation:         decodePlayerLocation,
	TypeTES:                    decodeTES,
	TypeGlobalVariables:        decodeGlobalVariables,
	TypeCreatedObjects:         decodeCreatedObjects,
	TypeEffects:                decodeEffects,
	TypeWeather:                decodeWeather,
	TypeAudio:                  decodeAudio,
	TypeSkyCells:               decodeSkyCells,
	TypeProcessLists:           decodeProcessLists,
	TypeCombat:                 opaque(TypeCombat),
	TypeInterface:              decodeInterface,
	TypeActorCauses:            decodeActorCauses,
	TypeUnknown104:             opaque(TypeUnknown104),
	TypeDetectionManager:       decodeDetectionManager,
	TypeLocationMetaData:       decodeLocationMetaData,
	TypeQuestStaticData:        decodeQuestStaticData,
	TypeStoryTeller:            decodeStoryTeller,
	TypeMagicFavorites:         decodeMagicFavorites,
	TypePlayerControls:         decodePlayerControls,
	TypeStoryEventManager:      decodeStoryEventManager,
	TypeIngredientShared:       decodeIngredientShared,
	TypeMenuControls:           decodeMenuControls,
	TypeMenuTopicManager:       decodeMenuTopicManager,
	TypeTempEffects:            opaque(TypeTempEffects),
	TypePapyrus:                opaque(TypePapyrus),
	TypeAnimObjects:            decodeAnimObjects,
	TypeTimer:                  decodeTimer,
	TypeSynchronizedAnimations: opaque(TypeSynchronizedAnimations),
	TypeMain:                   func(*reader) Record { return Empty{Tag: TypeMain} },
}

// ReadTable reads count records from c. A record is decoded inside a span
// of exactly its declared length, so an over-reading decoder fails with
// wire.ErrOutOfBounds and an under-reading one never misaligns the table.
func ReadTable(c *wire.Cursor, count uint32) ([]Record, error) {
	return wire.ReadN(c, count, recordHeaderSize, readRecord)
}

func readRecord(c *wire.Cursor) (Record, error) {
	tag, err := c.U32()
	if err != nil {
		return nil, fmt.Errorf("record type: %w", err)
	}
	length, err := c.U32()
	if err != nil {
		return nil, fmt.Errorf("%s record length: %w", Type(tag), err)
	}
	span, err := c.Sub(int(length))
	if err != nil {
		return nil, fmt.Errorf("%s record payload: %w", Type(tag), err)
	}
	return Decode(Type(tag), span)
}

// Decode runs the decoder registered for t over the payload in c. Unknown
// tags yield Empty and a warning; their payload is skipped.
func Decode(t Type, c *wire.Cursor) (Record, error) {
	fn, ok := registry[t]
	if !ok {
		c.Warn(wire.WarnUnknownRecordType, "no decoder for global data type %d, skipped %d bytes", uint32(t), c.Len())
		return Empty{Tag: t}, nil
	}
	r := &reader{c: c}
	rec := fn(r)
	if r.err != nil {
		return nil, fmt.Errorf("decode %s record: %w", t, r.err)
	}
	return rec, nil
}

func opaque(t Type) decodeFunc {
	return func(r *reader) Record {
		return Opaque{Tag: t, Data: r.rest()}
	}
}

func decodeMiscStats(r *reader) Record {
	return MiscStats{Stats: list(r, r.u32(), 7, readMiscStat)}
}

func readMiscStat(r *reader) MiscStat {
	s := MiscStat{Name: r.wstring()}
	off := r.c.Offset()
	s.Category = MiscStatCategory(r.u8())
	s.Value = r.u32()
	if r.err == nil && !s.Category.Recognized() {
		r.c.Diagnostics().Warn(off, wire.WarnUnrecognizedValue, "misc stat %q: category %d", s.Name, uint8(s.Category))
	}
	return s
}

func decodePlayerLocation(r *reader) Record {
	return PlayerLocation{
		NextObjectID: r.u32(),
		WorldSpace1:  r.ref(),
		CoorX:        r.i32(),
		CoorY:        r.i32(),
		WorldSpace2:  r.ref(),
		PosX:         r.f32(),
		PosY:         r.f32(),
		PosZ:         r.f32(),
		Trailing:     r.optionalRest(),
	}
}

func decodeTES(r *reader) Record {
	var rec TES
	rec.Unknown0 = list(r, r.count(), 5, func(r *reader) TESEntry {
		return TESEntry{Ref: r.ref(), Unknown: r.u16()}
	})
	// The second list holds count pairs of references.
	n := r.u32()
	rec.Unknown1 = list(r, uint32(min(uint64(n)*2, uint64(^uint32(0)))), 3, (*reader).ref)
	rec.Unknown2 = r.refsVS()
	return rec
}

func decodeGlobalVariables(r *reader) Record {
	return GlobalVariables{Vars: list(r, r.count(), 7, func(r *reader) GlobalVariable {
		return GlobalVariable{Ref: r.ref(), Value: r.f32()}
	})}
}

func decodeCreatedObjects(r *reader) Record {
	return CreatedObjects{
		Weapons: list(r, r.count(), 8, readEnchantment),
		Armour:  list(r, r.count(), 8, readEnchantment),
		Potions: list(r, r.count(), 8, readEnchantment),
		Poisons: list(r, r.count(), 8, readEnchantment),
	}
}

func readEnchantment(r *reader) Enchantment {
	return Enchantment{
		Ref:       r.ref(),
		TimesUsed: r.u32(),
		Effects:   list(r, r.count(), 19, readMagicEffect),
	}
}

func readMagicEffect(r *reader) MagicEffect {
	return MagicEffect{
		EffectID:  r.ref(),
		Magnitude: r.f32(),
		Duration:  r.u32(),
		Area:      r.u32(),
		Price:     r.f32(),
	}
}

func decodeEffects(r *reader) Record {
	return Effects{
		ImageSpaceModifiers: list(r, r.count(), 15, func(r *reader) ImageSpaceModifier {
			return ImageSpaceModifier{
				Strength:  r.f32(),
				Timestamp: r.f32(),
				Unknown:   r.u32(),
				EffectID:  r.ref(),
			}
		}),
		Unknown1: r.f32(),
		Unknown2: r.f32(),
	}
}

func decodeWeather(r *reader) Record {
	return Weather{
		Climate:     r.ref(),
		Weather:     r.ref(),
		PrevWeather: r.ref(),
		UnkWeather1: r.ref(),
		UnkWeather2: r.ref(),
		RegnWeather: r.ref(),
		CurTime:     r.f32(),
		BegTime:     r.f32(),
		WeatherPct:  r.f32(),
		U1:          r.u32(),
		U2:          r.u32(),
		U3:          r.u32(),
		U4:          r.u32(),
		U5:          r.u32(),
		U6:          r.u32(),
		U7:          r.f32(),
		U8:          r.u32(),
		Flags:       r.u8(),
		Tail:        r.optionalRest(),
	}
}

func decodeAudio(r *reader) Record {
	return Audio{
		Unknown: r.ref(),
		Tracks:  r.refsVS(),
		BGM:     r.ref(),
	}
}

func decodeSkyCells(r *reader) Record {
	return SkyCells{Cells: list(r, r.count(), 6, func(r *reader) SkyCell {
		return SkyCell{U1: r.ref(), U2: r.ref()}
	})}
}

func decodeProcessLists(r *reader) Record {
	return ProcessLists{
		U1:      r.f32(),
		U2:      r.f32(),
		U3:      r.f32(),
		NextNum: r.u32(),
		Crimes:  list(r, r.count(), 49, readCrime),
	}
}

func readCrime(r *reader) Crime {
	var c Crime
	c.WitnessNum = r.u32()
	off := r.c.Offset()
	c.CrimeType = CrimeType(r.u32())
	if r.err == nil && !c.CrimeType.Recognized() {
		r.c.Diagnostics().Warn(off, wire.WarnUnrecognizedValue, "crime type %d", uint32(c.CrimeType))
	}
	c.U1 = r.u8()
	c.Quantity = r.u32()
	c.SerialNum = r.u32()
	c.U2 = r.u8()
	c.U3 = r.u32()
	c.ElapsedTime = r.f32()
	c.VictimID = r.ref()
	c.CriminalID = r.ref()
	c.ItemBaseID = r.ref()
	c.OwnershipID = r.ref()
	c.Witnesses = r.refsVS()
	c.Bounty = r.u32()
	c.CrimeFaction = r.ref()
	c.IsCleared = r.bool8("crime is_cleared")
	c.U4 = r.u16()
	return c
}

func decodeInterface(r *reader) Record {
	return Interface{
		ShownHelpMessages: list(r, r.u32(), 4, (*reader).u32),
		U0:                r.u8(),
		LastUsedWeapons:   r.refsVS(),
		LastUsedSpells:    r.refsVS(),
		LastUsedShouts:    r.refsVS(),
		U1:                r.u8(),
		Trailing:          r.optionalRest(),
	}
}

func decodeActorCauses(r *reader) Record {
	return ActorCauses{
		NextNum: r.u32(),
		Causes: list(r, r.count(), 19, func(r *reader) ActorCause {
			return ActorCause{
				X:         r.f32(),
				Y:         r.f32(),
				Z:         r.f32(),
				SerialNum: r.u32(),
				ActorID:   r.ref(),
			}
		}),
	}
}

func decodeDetectionManager(r *reader) Record {
	return DetectionManager{Entries: list(r, r.count(), 11, func(r *reader) DetectionEntry {
		return DetectionEntry{Ref: r.ref(), U1: r.u32(), U2: r.u32()}
	})}
}

func decodeLocationMetaData(r *reader) Record {
	return LocationMetaData{Entries: list(r, r.count(), 7, func(r *reader) LocationMetaEntry {
		return LocationMetaEntry{Ref: r.ref(), U1: r.u32()}
	})}
}

func decodeQuestStaticData(r *reader) Record {
	return QuestStaticData{
		U0: list(r, r.u32(), 12, readQuestRunData),
		U1: list(r, r.u32(), 12, readQuestRunData),
		U2: r.refsU32(),
		U3: r.refsU32(),
		U4: r.refsU32(),
		U5: list(r, r.count(), 4, func(r *reader) QuestStaticEntry {
			return QuestStaticEntry{
				Ref: r.ref(),
				Pairs: list(r, r.count(), 8, func(r *reader) QuestStaticPair {
					return QuestStaticPair{A: r.u32(), B: r.u32()}
				}),
			}
		}),
		U6: r.u8(),
	}
}

func readQuestRunData(r *reader) QuestRunData {
	return QuestRunData{
		U1:    r.u32(),
		U2:    r.f32(),
		Items: list(r, r.u32(), 7, readQuestRunItem),
	}
}

func readQuestRunItem(r *reader) QuestRunItem {
	item := QuestRunItem{Type: r.u32()}
	switch item.Type {
	case 3:
		item.Kind = QuestItemU32
		item.Value = r.u32()
	case 1, 2, 4:
		item.Kind = QuestItemRef
		item.Ref = r.ref()
	default:
		off := r.c.Offset()
		item.Kind = QuestItemUnrecognized
		item.Ref = r.ref()
		if r.err == nil {
			r.c.Diagnostics().Warn(off, wire.WarnUnrecognizedValue, "quest run item type %d", item.Type)
		}
	}
	return item
}

func decodeStoryTeller(r *reader) Record {
	return StoryTeller{Flag: r.bool8("story teller flag")}
}

func decodeMagicFavorites(r *reader) Record {
	return MagicFavorites{
		Favorites: r.refsVS(),
		HotKeys:   r.refsVS(),
	}
}

func decodePlayerControls(r *reader) Record {
	return PlayerControls{
		U1: r.u8(),
		U2: r.u8(),
		U3: r.u8(),
		U4: r.u16(),
		U5: r.u8(),
	}
}

func decodeStoryEventManager(r *reader) Record {
	return StoryEventManager{
		U0:      r.u32(),
		Count:   r.count(),
		Entries: r.optionalRest(),
	}
}

func decodeIngredientShared(r *reader) Record {
	return IngredientShared{Pairs: list(r, r.u32(), 6, func(r *reader) IngredientPair {
		return IngredientPair{A: r.ref(), B: r.ref()}
	})}
}

func decodeMenuControls(r *reader) Record {
	return MenuControls{U1: r.u8(), U2: r.u8()}
}

func decodeMenuTopicManager(r *reader) Record {
	return MenuTopicManager{Topic1: r.ref(), Topic2: r.ref()}
}

func decodeAnimObjects(r *reader) Record {
	return AnimObjects{Objects: list(r, r.u32(), 7, func(r *reader) AnimObject {
		return AnimObject{Actor: r.ref(), Anim: r.ref(), U1: r.u8()}
	})}
}

func decodeTimer(r *reader) Record {
	return Timer{U1: r.u8(), U2: r.u8()}
}
