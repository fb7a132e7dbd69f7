package savefile

import (
	"time"

	"github.com/eunmann/tesv-save/pkg/wire"
)

// Magic opens every save container.
const Magic = "TESV_SAVEGAME"

// FileTime is a Windows FILETIME: 100ns intervals since 1601-01-01 UTC.
type FileTime struct {
	Low  uint32 `json:"low"`
	High uint32 `json:"high"`
}

// ticks between 1601-01-01 and 1970-01-01.
const fileTimeEpochDelta = 116444736000000000

// Time converts the timestamp to UTC. A zero FileTime maps to the zero Time.
func (ft FileTime) Time() time.Time {
	ticks := uint64(ft.High)<<32 | uint64(ft.Low)
	if ticks == 0 {
		return time.Time{}
	}
	unix100ns := int64(ticks) - fileTimeEpochDelta
	return time.Unix(unix100ns/1e7, (unix100ns%1e7)*100).UTC()
}

// Header is the fixed block that follows the magic and header size.
type Header struct {
	Version        uint32      `json:"version"`
	SaveNumber     uint32      `json:"save_number"`
	PlayerName     string      `json:"player_name"`
	PlayerLevel    uint32      `json:"player_level"`
	PlayerLocation string      `json:"player_location"`
	GameDate       string      `json:"game_date"`
	PlayerRaceID   string      `json:"player_race_id"`
	PlayerSex      uint16      `json:"player_sex"`
	PlayerCurExp   wire.F32    `json:"player_cur_exp"`
	PlayerLvlUpExp wire.F32    `json:"player_lvl_up_exp"`
	FileTime       FileTime    `json:"file_time"`
	ShotWidth      uint32      `json:"shot_width"`
	ShotHeight     uint32      `json:"shot_height"`
	Compression    Compression `json:"compression"`
}

// ScreenshotSize is 4 bytes per pixel, computed in 64 bits.
func (h *Header) ScreenshotSize() uint64 {
	return 4 * uint64(h.ShotWidth) * uint64(h.ShotHeight)
}

func readHeader(c *wire.Cursor) (Header, error) {
	var h Header
	var err error
	if h.Version, err = c.U32(); err != nil {
		return h, err
	}
	if h.SaveNumber, err = c.U32(); err != nil {
		return h, err
	}
	if h.PlayerName, err = c.WString(); err != nil {
		return h, err
	}
	if h.PlayerLevel, err = c.U32(); err != nil {
		return h, err
	}
	if h.PlayerLocation, err = c.WString(); err != nil {
		return h, err
	}
	if h.GameDate, err = c.WString(); err != nil {
		return h, err
	}
	if h.PlayerRaceID, err = c.WString(); err != nil {
		return h, err
	}
	if h.PlayerSex, err = c.U16(); err != nil {
		return h, err
	}
	if h.PlayerCurExp, err = c.F32(); err != nil {
		return h, err
	}
	if h.PlayerLvlUpExp, err = c.F32(); err != nil {
		return h, err
	}
	if h.FileTime.Low, err = c.U32(); err != nil {
		return h, err
	}
	if h.FileTime.High, err = c.U32(); err != nil {
		return h, err
	}
	if h.ShotWidth, err = c.U32(); err != nil {
		return h, err
	}
	if h.ShotHeight, err = c.U32(); err != nil {
		return h, err
	}
	code, err := c.U16()
	if err != nil {
		return h, err
	}
	h.Compression = Compression(code)
	return h, nil
}

// Screenshot holds raw RGBA pixels.
type Screenshot struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Data   []byte `json:"-"`
}
