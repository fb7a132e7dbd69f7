package globaldata

import (
	"strconv"

	"github.com/eunmann/tesv-save/pkg/wire"
)

// Record is one decoded global data entry.
type Record interface {
	Type() Type
}

// Empty is the terminal variant. It is produced for TypeMain, whose
// payload is never read, and for tags with no registered decoder.
type Empty struct {
	Tag Type `json:"tag"`
}

// Opaque carries a record whose layout is undocumented.
type Opaque struct {
	Tag  Type   `json:"tag"`
	Data []byte `json:"data"`
}

func (r Empty) Type() Type  { return r.Tag }
func (r Opaque) Type() Type { return r.Tag }

// MiscStatCategory groups a misc stat in the statistics menu.
type MiscStatCategory uint8

const (
	CategoryGeneral MiscStatCategory = iota
	CategoryQuest
	CategoryCombat
	CategoryMagic
	CategoryCrafting
	CategoryCrime
	// CategoryDLCStats holds DLC counters that never show up in the menu.
	CategoryDLCStats
)

var categoryNames = [...]string{"General", "Quest", "Combat", "Magic", "Crafting", "Crime", "DLCStats"}

// Recognized reports whether the category is one of the known values.
func (c MiscStatCategory) Recognized() bool {
	return int(c) < len(categoryNames)
}

func (c MiscStatCategory) String() string {
	if c.Recognized() {
		return categoryNames[c]
	}
	return "unrecognized(" + strconv.Itoa(int(c)) + ")"
}

type MiscStat struct {
	Name     string           `json:"name"`
	Category MiscStatCategory `json:"category"`
	Value    uint32           `json:"value"`
}

type MiscStats struct {
	Stats []MiscStat `json:"stats"`
}

type PlayerLocation struct {
	// NextObjectID is the next runtime-created (0xFFxxxxxx) object ID.
	NextObjectID uint32   `json:"next_object_id"`
	WorldSpace1  wire.Ref `json:"world_space_1"`
	CoorX        int32    `json:"coor_x"`
	CoorY        int32    `json:"coor_y"`
	// WorldSpace2 is a worldspace or an interior cell.
	WorldSpace2 wire.Ref `json:"world_space_2"`
	PosX        wire.F32 `json:"pos_x"`
	PosY        wire.F32 `json:"pos_y"`
	PosZ        wire.F32 `json:"pos_z"`
	// Trailing is absent in some save versions.
	Trailing wire.Optional[[]byte] `json:"trailing"`
}

type TESEntry struct {
	Ref     wire.Ref `json:"ref"`
	Unknown uint16   `json:"unknown"`
}

type TES struct {
	Unknown0 []TESEntry `json:"unknown0"`
	Unknown1 []wire.Ref `json:"unknown1"`
	Unknown2 []wire.Ref `json:"unknown2"`
}

type GlobalVariable struct {
	Ref   wire.Ref `json:"ref"`
	Value wire.F32 `json:"value"`
}

type GlobalVariables struct {
	Vars []GlobalVariable `json:"vars"`
}

type MagicEffect struct {
	EffectID  wire.Ref `json:"effect_id"`
	Magnitude wire.F32 `json:"magnitude"`
	Duration  uint32   `json:"duration"`
	Area      uint32   `json:"area"`
	// Price is what the effect adds to the base item's value.
	Price wire.F32 `json:"price"`
}

type Enchantment struct {
	Ref       wire.Ref      `json:"ref"`
	TimesUsed uint32        `json:"times_used"`
	Effects   []MagicEffect `json:"effects"`
}

// CreatedObjects lists player-made enchantments, potions and poisons.
type CreatedObjects struct {
	Weapons []Enchantment `json:"weapons"`
	Armour  []Enchantment `json:"armour"`
	Potions []Enchantment `json:"potions"`
	Poisons []Enchantment `json:"poisons"`
}

type ImageSpaceModifier struct {
	// Strength runs from 0 (no effect) to 1 (full effect).
	Strength  wire.F32 `json:"strength"`
	Timestamp wire.F32 `json:"timestamp"`
	Unknown   uint32   `json:"unknown"`
	EffectID  wire.Ref `json:"effect_id"`
}

type Effects struct {
	ImageSpaceModifiers []ImageSpaceModifier `json:"image_space_modifiers"`
	Unknown1            wire.F32             `json:"unknown1"`
	Unknown2            wire.F32             `json:"unknown2"`
}

// Weather flag bits that announce undocumented trailing data.
const (
	WeatherFlagUnknown9  = 0x80
	WeatherFlagUnknown10 = 0x40
)

type Weather struct {
	Climate     wire.Ref `json:"climate"`
	Weather     wire.Ref `json:"weather"`
	PrevWeather wire.Ref `json:"prev_weather"`
	UnkWeather1 wire.Ref `json:"unk_weather_1"`
	UnkWeather2 wire.Ref `json:"unk_weather_2"`
	RegnWeather wire.Ref `json:"regn_weather"`
	CurTime     wire.F32 `json:"cur_time"`
	BegTime     wire.F32 `json:"beg_time"`
	WeatherPct  wire.F32 `json:"weather_pct"`
	U1          uint32   `json:"u1"`
	U2          uint32   `json:"u2"`
	U3          uint32   `json:"u3"`
	U4          uint32   `json:"u4"`
	U5          uint32   `json:"u5"`
	U6          uint32   `json:"u6"`
	U7          wire.F32 `json:"u7"`
	U8          uint32   `json:"u8"`
	Flags       uint8    `json:"flags"`
	// Tail holds whatever follows the flags byte.
	Tail wire.Optional[[]byte] `json:"tail"`
}

type Audio struct {
	Unknown wire.Ref   `json:"unknown"`
	Tracks  []wire.Ref `json:"tracks"`
	BGM     wire.Ref   `json:"bgm"`
}

type SkyCell struct {
	U1 wire.Ref `json:"u1"`
	U2 wire.Ref `json:"u2"`
}

type SkyCells struct {
	Cells []SkyCell `json:"cells"`
}

// CrimeType is the kind of a recorded crime.
type CrimeType uint32

const (
	CrimeTheft CrimeType = iota
	CrimePickpocketing
	CrimeTrespassing
	CrimeAssault
	CrimeMurder
	CrimeUnknown5
	CrimeLycanthropy
)

var crimeNames = [...]string{"Theft", "Pickpocketing", "Trespassing", "Assault", "Murder", "Unknown5", "Lycanthropy"}

func (t CrimeType) Recognized() bool {
	return uint64(t) < uint64(len(crimeNames))
}

func (t CrimeType) String() string {
	if t.Recognized() {
		return crimeNames[t]
	}
	return "unrecognized(" + strconv.FormatUint(uint64(t), 10) + ")"
}

type Crime struct {
	WitnessNum uint32    `json:"witness_num"`
	CrimeType  CrimeType `json:"crime_type"`
	U1         uint8     `json:"u1"`
	// Quantity is the number of stolen items; thefts only.
	Quantity     uint32     `json:"quantity"`
	SerialNum    uint32     `json:"serial_num"`
	U2           uint8      `json:"u2"`
	U3           uint32     `json:"u3"`
	ElapsedTime  wire.F32   `json:"elapsed_time"`
	VictimID     wire.Ref   `json:"victim_id"`
	CriminalID   wire.Ref   `json:"criminal_id"`
	ItemBaseID   wire.Ref   `json:"item_base_id"`
	OwnershipID  wire.Ref   `json:"ownership_id"`
	Witnesses    []wire.Ref `json:"witnesses"`
	Bounty       uint32     `json:"bounty"`
	CrimeFaction wire.Ref   `json:"crime_faction"`
	IsCleared    wire.Bool8 `json:"is_cleared"`
	U4           uint16     `json:"u4"`
}

type ProcessLists struct {
	U1      wire.F32 `json:"u1"`
	U2      wire.F32 `json:"u2"`
	U3      wire.F32 `json:"u3"`
	NextNum uint32   `json:"next_num"`
	Crimes  []Crime  `json:"crimes"`
}

type Interface struct {
	ShownHelpMessages []uint32   `json:"shown_help_messages"`
	U0                uint8      `json:"u0"`
	LastUsedWeapons   []wire.Ref `json:"last_used_weapons"`
	LastUsedSpells    []wire.Ref `json:"last_used_spells"`
	LastUsedShouts    []wire.Ref `json:"last_used_shouts"`
	U1                uint8      `json:"u1"`
	// Trailing is only written in some situations.
	Trailing wire.Optional[[]byte] `json:"trailing"`
}

type ActorCause struct {
	X         wire.F32 `json:"x"`
	Y         wire.F32 `json:"y"`
	Z         wire.F32 `json:"z"`
	SerialNum uint32   `json:"serial_num"`
	ActorID   wire.Ref `json:"actor_id"`
}

type ActorCauses struct {
	NextNum uint32       `json:"next_num"`
	Causes  []ActorCause `json:"causes"`
}

type DetectionEntry struct {
	Ref wire.Ref `json:"ref"`
	U1  uint32   `json:"u1"`
	U2  uint32   `json:"u2"`
}

type DetectionManager struct {
	Entries []DetectionEntry `json:"entries"`
}

type LocationMetaEntry struct {
	Ref wire.Ref `json:"ref"`
	U1  uint32   `json:"u1"`
}

type LocationMetaData struct {
	Entries []LocationMetaEntry `json:"entries"`
}

// QuestItemKind says how a quest run-data item value was decoded.
type QuestItemKind uint8

const (
	QuestItemRef QuestItemKind = iota
	QuestItemU32
	// QuestItemUnrecognized is an unknown item type; its three value bytes
	// were read as a reference.
	QuestItemUnrecognized
)

type QuestRunItem struct {
	Type  uint32        `json:"type"`
	Kind  QuestItemKind `json:"kind"`
	Ref   wire.Ref      `json:"ref"`
	Value uint32        `json:"value"`
}

type QuestRunData struct {
	U1    uint32         `json:"u1"`
	U2    wire.F32       `json:"u2"`
	Items []QuestRunItem `json:"items"`
}

type QuestStaticPair struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

type QuestStaticEntry struct {
	Ref   wire.Ref          `json:"ref"`
	Pairs []QuestStaticPair `json:"pairs"`
}

type QuestStaticData struct {
	U0 []QuestRunData     `json:"u0"`
	U1 []QuestRunData     `json:"u1"`
	U2 []wire.Ref         `json:"u2"`
	U3 []wire.Ref         `json:"u3"`
	U4 []wire.Ref         `json:"u4"`
	U5 []QuestStaticEntry `json:"u5"`
	U6 uint8              `json:"u6"`
}

type StoryTeller struct {
	Flag wire.Bool8 `json:"flag"`
}

type MagicFavorites struct {
	// Favorites holds spells, shouts and abilities.
	Favorites []wire.Ref `json:"favorites"`
	// HotKeys is indexed by hotkey slot.
	HotKeys []wire.Ref `json:"hot_keys"`
}

type PlayerControls struct {
	U1 uint8  `json:"u1"`
	U2 uint8  `json:"u2"`
	U3 uint8  `json:"u3"`
	U4 uint16 `json:"u4"`
	U5 uint8  `json:"u5"`
}

type StoryEventManager struct {
	U0    uint32 `json:"u0"`
	Count uint32 `json:"count"`
	// Entries are Count events in an undocumented layout.
	Entries wire.Optional[[]byte] `json:"entries"`
}

// IngredientPair is a failed alchemy combination.
type IngredientPair struct {
	A wire.Ref `json:"a"`
	B wire.Ref `json:"b"`
}

type IngredientShared struct {
	Pairs []IngredientPair `json:"pairs"`
}

type MenuControls struct {
	U1 uint8 `json:"u1"`
	U2 uint8 `json:"u2"`
}

type MenuTopicManager struct {
	Topic1 wire.Ref `json:"topic1"`
	Topic2 wire.Ref `json:"topic2"`
}

type AnimObject struct {
	Actor wire.Ref `json:"actor"`
	Anim  wire.Ref `json:"anim"`
	U1    uint8    `json:"u1"`
}

type AnimObjects struct {
	Objects []AnimObject `json:"objects"`
}

type Timer struct {
	U1 uint8 `json:"u1"`
	U2 uint8 `json:"u2"`
}

func (MiscStats) Type() Type         { return TypeMiscStats }
func (PlayerLocation) Type() Type    { return TypePlayerLocation }
func (TES) Type() Type               { return TypeTES }
func (GlobalVariables) Type() Type   { return TypeGlobalVariables }
func (CreatedObjects) Type() Type    { return TypeCreatedObjects }
func (Effects) Type() Type           { return TypeEffects }
func (Weather) Type() Type           { return TypeWeather }
func (Audio) Type() Type             { return TypeAudio }
func (SkyCells) Type() Type          { return TypeSkyCells }
func (ProcessLists) Type() Type      { return TypeProcessLists }
func (Interface) Type() Type         { return TypeInterface }
func (ActorCauses) Type() Type       { return TypeActorCauses }
func (DetectionManager) Type() Type  { return TypeDetectionManager }
func (LocationMetaData) Type() Type  { return TypeLocationMetaData }
func (QuestStaticData) Type() Type   { return TypeQuestStaticData }
func (StoryTeller) Type() Type       { return TypeStoryTeller }
func (MagicFavorites) Type() Type    { return TypeMagicFavorites }
func (PlayerControls) Type() Type    { return TypePlayerControls }
func (StoryEventManager) Type() Type { return TypeStoryEventManager }
func (IngredientShared) Type() Type  { return TypeIngredientShared }
func (MenuControls) Type() Type      { return TypeMenuControls }
func (MenuTopicManager) Type() Type  { return TypeMenuTopicManager }
func (AnimObjects) Type() Type       { return TypeAnimObjects }
func (Timer) Type() Type             { return TypeTimer }
