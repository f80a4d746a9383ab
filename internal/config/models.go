package config

import (
	"errors"
	"time"
)

const (
	MaxSupportedMotors = 16
	AppEnvBase         = "GORRC_"
	ConfigFileEnv      = AppEnvBase + "CONFIG_FILE"

	DriveModeDualStick = "dualstick"
	DriveModeGamepad   = "gamepad"
	DriveModeMixed     = "mixed"

	DefaultServer         = "127.0.0.1:8181"
	DefaultRobotKey       = ""
	DefaultPassword       = ""
	DefaultHealthInterval = 30 * time.Second

	DefaultDriveMode    = DriveModeMixed
	DefaultTickPeriod   = 20 * time.Millisecond
	DefaultSquareInputs = true
	DefaultAutoEnable   = true

	DefaultLeftStickID  = 0
	DefaultRightStickID = 1
	// A negative gamepad id picks the index from the drive mode. The gamepad is the only
	// device in gamepad mode and sits after the two joysticks in mixed mode.
	DefaultGamepadID = -1
	SoloGamepadID    = 0
	MixedGamepadID   = 2

	DefaultKeyTimeout = 200 * time.Millisecond

	DefaultTelemetryEnabled   = true
	DefaultTelemetryPeriod    = 250 * time.Millisecond
	DefaultTelemetryInterface = "wlan0"

	// Default Command Options
	DefaultCommandDriver = "pca9685"
	DefaultAddress       = 0x40
	DefaultI2CDevice     = "/dev/i2c-1"

	DefaultMaxPulse = 2000
	DefaultMinPulse = 1000
	DefaultInverted = false
	DefaultOffset   = 0

	// Motor groups of a differential drive.
	LeftGroup  = "left"
	RightGroup = "right"

	DefaultLogLevel    = "info"
	DefaultLogEncoding = "console"
)

var ErrInvalidDriveMode = errors.New("invalid drive mode")

type Config struct {
	ServerCfg  ServerConfig  `yaml:"server"`
	DriveCfg   DriveConfig   `yaml:"drive"`
	CommandCfg CommandConfig `yaml:"command"`
	LogCfg     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Server          string        `yaml:"address"`
	Key             string        `yaml:"key"`
	Password        string        `yaml:"password"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	KeyTimeout      time.Duration `yaml:"key_timeout"`
	TelemetryOn     bool          `yaml:"telemetry_enabled"`
	TelemetryPeriod time.Duration `yaml:"telemetry_period"`
	TelemetryIface  string        `yaml:"telemetry_interface"`
}

type DriveConfig struct {
	Mode         string         `yaml:"mode"`
	TickPeriod   time.Duration  `yaml:"tick_period"`
	SquareInputs bool           `yaml:"square_inputs"`
	AutoEnable   bool           `yaml:"auto_enable"`
	LeftStickID  int            `yaml:"left_stick_id"`
	RightStickID int            `yaml:"right_stick_id"`
	GamepadID    int            `yaml:"gamepad_id"`
	Devices      []DeviceConfig `yaml:"devices"`
}

// GamepadIndex is the device index the gamepad is opened at.
func (c DriveConfig) GamepadIndex() int {
	if c.GamepadID >= 0 {
		return c.GamepadID
	}
	if c.Mode == DriveModeMixed {
		return MixedGamepadID
	}
	return SoloGamepadID
}

// DeviceConfig adds or overrides an entry in the recognized-device table.
type DeviceConfig struct {
	Name      string `yaml:"name"`
	Inverted  bool   `yaml:"inverted"`
	LeftAxis  int    `yaml:"left_axis"`
	RightAxis int    `yaml:"right_axis"`
}

type CommandConfig struct {
	CommandDriver string        `yaml:"driver"`
	Address       byte          `yaml:"address"`
	I2CDevice     string        `yaml:"i2c_device"`
	MotorCfgs     []MotorConfig `yaml:"motors"`
}

type MotorConfig struct {
	Name     string  `yaml:"name"`
	Group    string  `yaml:"group"`
	Inverted bool    `yaml:"inverted"`
	Channel  int     `yaml:"channel"`
	MaxPulse float64 `yaml:"max_pulse"`
	MinPulse float64 `yaml:"min_pulse"`
	Offset   int     `yaml:"offset"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}
