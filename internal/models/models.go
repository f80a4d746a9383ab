package models

import (
	"github.com/google/uuid"
)

// KeyNames is the relay key order. Bit i of KeyState.BitKeys is KeyNames[i].
var KeyNames = []string{"up", "down", "left", "right", "w", "a", "s", "d"}

type ConnectReq struct {
	Id        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Password  string    `json:"password"`
	DriveMode string    `json:"drive_mode"`
}

type ConnectResp struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

const (
	ModeTeleop   = "teleop"
	ModeDisabled = "disabled"
)

// ModeChange is sent by the driver station to enable or disable teleop.
type ModeChange struct {
	Mode      string `json:"mode"`
	TimeStamp int64  `json:"time_stamp"`
}

// KeyState is one key update from the driver station. Keys can be sent by name, as a bit
// mask, or both; named entries win.
type KeyState struct {
	Entries   map[string]bool `json:"entries,omitempty"`
	BitKeys   uint32          `json:"bit_keys"`
	TimeStamp int64           `json:"time_stamp"`
}

type Telemetry struct {
	RobotId   uuid.UUID `json:"robot_id"`
	Left      float64   `json:"left"`
	Right     float64   `json:"right"`
	Sources   []string  `json:"sources"`
	Lines     []string  `json:"lines"`
	TimeStamp int64     `json:"time_stamp"`
}
