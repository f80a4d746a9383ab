package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, DriveModeMixed, cfg.DriveCfg.Mode)
	assert.Equal(t, 20*time.Millisecond, cfg.DriveCfg.TickPeriod)
	assert.True(t, cfg.DriveCfg.SquareInputs)
	assert.Len(t, cfg.CommandCfg.MotorCfgs, 4)
	assert.Equal(t, 2, cfg.DriveCfg.GamepadIndex())
	assert.Equal(t, "pca9685", cfg.CommandCfg.CommandDriver)
}

func TestGetConfigEnvOverrides(t *testing.T) {
	t.Setenv("GORRC_DRIVEMODE", "GamePad")
	t.Setenv("GORRC_TICK_PERIOD", "10ms")
	t.Setenv("GORRC_SQUARE_INPUTS", "false")
	t.Setenv("GORRC_ROBOTPASSWORD", "MixedCase")
	t.Setenv("GORRC_GAMEPAD_ID", "0")
	t.Setenv("GORRC_MOTOR0_NAME", "left_drive")
	t.Setenv("GORRC_MOTOR0_GROUP", "left")
	t.Setenv("GORRC_MOTOR1_NAME", "right_drive")
	t.Setenv("GORRC_MOTOR1_GROUP", "right")
	t.Setenv("GORRC_MOTOR1_INVERTED", "true")

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, DriveModeGamepad, cfg.DriveCfg.Mode)
	assert.Equal(t, 10*time.Millisecond, cfg.DriveCfg.TickPeriod)
	assert.False(t, cfg.DriveCfg.SquareInputs)
	assert.Equal(t, "MixedCase", cfg.ServerCfg.Password)
	assert.Equal(t, 0, cfg.DriveCfg.GamepadIndex())

	require.Len(t, cfg.CommandCfg.MotorCfgs, 2)
	assert.Equal(t, "left_drive", cfg.CommandCfg.MotorCfgs[0].Name)
	assert.Equal(t, 1, cfg.CommandCfg.MotorCfgs[1].Channel)
	assert.True(t, cfg.CommandCfg.MotorCfgs[1].Inverted)
}

func TestGetConfigBadEnvFallsBack(t *testing.T) {
	t.Setenv("GORRC_LEFTSTICK_ID", "left")
	t.Setenv("GORRC_KEY_TIMEOUT", "soon")

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultLeftStickID, cfg.DriveCfg.LeftStickID)
	assert.Equal(t, DefaultKeyTimeout, cfg.ServerCfg.KeyTimeout)
}

func TestGetConfigInvalidDriveMode(t *testing.T) {
	t.Setenv("GORRC_DRIVEMODE", "arcade")

	_, err := GetConfig()
	assert.ErrorIs(t, err, ErrInvalidDriveMode)
}

func TestGetConfigGamepadCollision(t *testing.T) {
	t.Setenv("GORRC_GAMEPAD_ID", "1")

	_, err := GetConfig()
	assert.Error(t, err)
}

func TestGetConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	err := os.WriteFile(path, []byte(`
server:
  address: 10.0.0.2:8181
  key_timeout: 300ms
drive:
  mode: dualstick
  tick_period: 25ms
  devices:
    - name: Custom Flight Stick
      inverted: true
      left_axis: 1
      right_axis: 3
command:
  driver: log
  motors:
    - name: left
      group: left
      channel: 4
log:
  level: debug
`), 0o600)
	require.NoError(t, err)

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("GORRC_TICK_PERIOD", "15ms")

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2:8181", cfg.ServerCfg.Server)
	assert.Equal(t, 300*time.Millisecond, cfg.ServerCfg.KeyTimeout)
	assert.Equal(t, DriveModeDualStick, cfg.DriveCfg.Mode)
	assert.Equal(t, 15*time.Millisecond, cfg.DriveCfg.TickPeriod)
	require.Len(t, cfg.DriveCfg.Devices, 1)
	assert.True(t, cfg.DriveCfg.Devices[0].Inverted)
	assert.Equal(t, 3, cfg.DriveCfg.Devices[0].RightAxis)
	assert.Equal(t, "log", cfg.CommandCfg.CommandDriver)
	require.Len(t, cfg.CommandCfg.MotorCfgs, 1)
	assert.Equal(t, 4, cfg.CommandCfg.MotorCfgs[0].Channel)
	assert.Equal(t, "debug", cfg.LogCfg.Level)
	assert.Equal(t, DefaultLogEncoding, cfg.LogCfg.Encoding)
}

func TestGetConfigMissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := GetConfig()
	assert.Error(t, err)
}

func TestGamepadIndexDefaultsByMode(t *testing.T) {
	t.Setenv("GORRC_DRIVEMODE", "gamepad")

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultGamepadID, cfg.DriveCfg.GamepadID)
	assert.Equal(t, 0, cfg.DriveCfg.GamepadIndex())

	t.Setenv("GORRC_GAMEPAD_ID", "4")
	cfg, err = GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.DriveCfg.GamepadIndex())
}
