// Package globaldata decodes the type-tagged global data tables of a save
// body. Each record is a (type u32, length u32, payload) triple; the payload
// is decoded through a cursor bounded to exactly length bytes.
package globaldata

import "strconv"

// Type is the 32-bit tag that selects a global data record decoder.
type Type uint32

// Table 1 types.
const (
	TypeMiscStats       Type = 0
	TypePlayerLocation  Type = 1
	TypeTES             Type = 2
	TypeGlobalVariables Type = 3
	TypeCreatedObjects  Type = 4
	TypeEffects         Type = 5
	TypeWeather         Type = 6
	TypeAudio           Type = 7
	TypeSkyCells        Type = 8
)

// Table 2 types.
const (
	TypeProcessLists      Type = 100
	TypeCombat            Type = 101
	TypeInterface         Type = 102
	TypeActorCauses       Type = 103
	TypeUnknown104        Type = 104
	TypeDetectionManager  Type = 105
	TypeLocationMetaData  Type = 106
	TypeQuestStaticData   Type = 107
	TypeStoryTeller       Type = 108
	TypeMagicFavorites    Type = 109
	TypePlayerControls    Type = 110
	TypeStoryEventManager Type = 111
	TypeIngredientShared  Type = 112
	TypeMenuControls      Type = 113
	TypeMenuTopicManager  Type = 114
)

// Table 3 types.
const (
	TypeTempEffects            Type = 1000
	TypePapyrus                Type = 1001
	TypeAnimObjects            Type = 1002
	TypeTimer                  Type = 1003
	TypeSynchronizedAnimations Type = 1004
	TypeMain                   Type = 1005
)

var typeNames = map[Type]string{
	TypeMiscStats:              "MiscStats",
	TypePlayerLocation:         "PlayerLocation",
	TypeTES:                    "TES",
	TypeGlobalVariables:        "GlobalVariables",
	TypeCreatedObjects:         "CreatedObjects",
	TypeEffects:                "Effects",
	TypeWeather:                "Weather",
	TypeAudio:                  "Audio",
	TypeSkyCells:               "SkyCells",
	TypeProcessLists:           "ProcessLists",
	TypeCombat:                 "Combat",
	TypeInterface:              "Interface",
	TypeActorCauses:            "ActorCauses",
	TypeUnknown104:             "Unknown104",
	TypeDetectionManager:       "DetectionManager",
	TypeLocationMetaData:       "LocationMetaData",
	TypeQuestStaticData:        "QuestStaticData",
	TypeStoryTeller:            "StoryTeller",
	TypeMagicFavorites:         "MagicFavorites",
	TypePlayerControls:         "PlayerControls",
	TypeStoryEventManager:      "StoryEventManager",
	TypeIngredientShared:       "IngredientShared",
	TypeMenuControls:           "MenuControls",
	TypeMenuTopicManager:       "MenuTopicManager",
	TypeTempEffects:            "TempEffects",
	TypePapyrus:                "Papyrus",
	TypeAnimObjects:            "AnimObjects",
	TypeTimer:                  "Timer",
	TypeSynchronizedAnimations: "SynchronizedAnimations",
	TypeMain:                   "Main",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Type(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// Known reports whether t has a registered decoder.
func (t Type) Known() bool {
	_, ok := registry[t]
	return ok
}
