package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// GetConfig builds the app config from defaults, then the optional YAML file named by
// GORRC_CONFIG_FILE, then GORRC_ environment variables.
func GetConfig() (Config, error) {
	cfg := DefaultConfig()

	if path, found := os.LookupEnv(ConfigFileEnv); found && path != "" {
		err := LoadFile(path, &cfg)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.ServerCfg = GetServerConfig(cfg.ServerCfg)
	cfg.DriveCfg = GetDriveConfig(cfg.DriveCfg)
	cfg.CommandCfg = GetCommandConfig(cfg.CommandCfg)
	cfg.LogCfg = GetLogConfig(cfg.LogCfg)

	err := cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	zap.L().Info("app config loaded",
		zap.String("server", cfg.ServerCfg.Server),
		zap.Any("drive", cfg.DriveCfg),
		zap.Any("command", cfg.CommandCfg),
	)
	return cfg, nil
}

func DefaultConfig() Config {
	return Config{
		ServerCfg: ServerConfig{
			Server:          DefaultServer,
			Key:             DefaultRobotKey,
			Password:        DefaultPassword,
			HealthInterval:  DefaultHealthInterval,
			KeyTimeout:      DefaultKeyTimeout,
			TelemetryOn:     DefaultTelemetryEnabled,
			TelemetryPeriod: DefaultTelemetryPeriod,
			TelemetryIface:  DefaultTelemetryInterface,
		},
		DriveCfg: DriveConfig{
			Mode:         DefaultDriveMode,
			TickPeriod:   DefaultTickPeriod,
			SquareInputs: DefaultSquareInputs,
			AutoEnable:   DefaultAutoEnable,
			LeftStickID:  DefaultLeftStickID,
			RightStickID: DefaultRightStickID,
			GamepadID:    DefaultGamepadID,
		},
		CommandCfg: CommandConfig{
			CommandDriver: DefaultCommandDriver,
			Address:       DefaultAddress,
			I2CDevice:     DefaultI2CDevice,
			MotorCfgs:     DefaultMotorConfigs(),
		},
		LogCfg: LogConfig{
			Level:    DefaultLogLevel,
			Encoding: DefaultLogEncoding,
		},
	}
}

// DefaultMotorConfigs is a four motor drivetrain, two controllers per side. The right side
// is mounted mirrored so it is inverted.
func DefaultMotorConfigs() []MotorConfig {
	return []MotorConfig{
		{Name: "front_left", Group: LeftGroup, Channel: 0, MaxPulse: DefaultMaxPulse, MinPulse: DefaultMinPulse},
		{Name: "back_left", Group: LeftGroup, Channel: 1, MaxPulse: DefaultMaxPulse, MinPulse: DefaultMinPulse},
		{Name: "front_right", Group: RightGroup, Channel: 2, MaxPulse: DefaultMaxPulse, MinPulse: DefaultMinPulse, Inverted: true},
		{Name: "back_right", Group: RightGroup, Channel: 3, MaxPulse: DefaultMaxPulse, MinPulse: DefaultMinPulse, Inverted: true},
	}
}

func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed reading config file %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed parsing config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DriveCfg.Mode {
	case DriveModeDualStick, DriveModeGamepad, DriveModeMixed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriveMode, c.DriveCfg.Mode)
	}

	periods := map[string]time.Duration{
		"tick period":      c.DriveCfg.TickPeriod,
		"key timeout":      c.ServerCfg.KeyTimeout,
		"health interval":  c.ServerCfg.HealthInterval,
		"telemetry period": c.ServerCfg.TelemetryPeriod,
	}
	for name, period := range periods {
		if period <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, period)
		}
	}

	gamepadID := c.DriveCfg.GamepadIndex()
	if c.DriveCfg.Mode == DriveModeMixed &&
		(gamepadID == c.DriveCfg.LeftStickID || gamepadID == c.DriveCfg.RightStickID) {
		return fmt.Errorf("gamepad id %d collides with a joystick id", gamepadID)
	}
	return nil
}

func GetServerConfig(base ServerConfig) ServerConfig {
	return ServerConfig{
		Server:          GetStringEnv("SERVER", base.Server),
		Key:             GetRawStringEnv("ROBOTKEY", base.Key),
		Password:        GetRawStringEnv("ROBOTPASSWORD", base.Password),
		HealthInterval:  GetDurationEnv("HEALTH_INTERVAL", base.HealthInterval),
		KeyTimeout:      GetDurationEnv("KEY_TIMEOUT", base.KeyTimeout),
		TelemetryOn:     GetBoolEnv("TELEMETRY_ENABLED", base.TelemetryOn),
		TelemetryPeriod: GetDurationEnv("TELEMETRY_PERIOD", base.TelemetryPeriod),
		TelemetryIface:  GetStringEnv("TELEMETRY_IFACE", base.TelemetryIface),
	}
}

func GetDriveConfig(base DriveConfig) DriveConfig {
	return DriveConfig{
		Mode:         GetStringEnv("DRIVEMODE", base.Mode),
		TickPeriod:   GetDurationEnv("TICK_PERIOD", base.TickPeriod),
		SquareInputs: GetBoolEnv("SQUARE_INPUTS", base.SquareInputs),
		AutoEnable:   GetBoolEnv("AUTOENABLE", base.AutoEnable),
		LeftStickID:  GetIntEnv("LEFTSTICK_ID", base.LeftStickID),
		RightStickID: GetIntEnv("RIGHTSTICK_ID", base.RightStickID),
		GamepadID:    GetIntEnv("GAMEPAD_ID", base.GamepadID),
		Devices:      base.Devices,
	}
}

// GetCommandConfig reads MOTOR<i>_ blocks. Any motor found in the environment replaces the
// motor list from the defaults or config file.
func GetCommandConfig(base CommandConfig) CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver: GetStringEnv("MOTORDRIVER", base.CommandDriver),
		Address:       base.Address,
		I2CDevice:     GetStringEnv("I2CDEVICE", base.I2CDevice),
		MotorCfgs:     base.MotorCfgs,
	}

	motorCfgs := make([]MotorConfig, 0, MaxSupportedMotors)
	for i := 0; i < MaxSupportedMotors; i++ {
		envPrefix := fmt.Sprintf("MOTOR%d_", i)
		motorCfg := MotorConfig{
			Name:     GetStringEnv(envPrefix+"NAME", ""),
			Group:    GetStringEnv(envPrefix+"GROUP", ""),
			Channel:  GetIntEnv(envPrefix+"CHANNEL", i),
			MaxPulse: float64(GetIntEnv(envPrefix+"MAXPULSE", DefaultMaxPulse)),
			MinPulse: float64(GetIntEnv(envPrefix+"MINPULSE", DefaultMinPulse)),
			Inverted: GetBoolEnv(envPrefix+"INVERTED", DefaultInverted),
			Offset:   GetIntEnv(envPrefix+"MIDOFFSET", DefaultOffset),
		}

		if motorCfg.Name != "" {
			zap.L().Debug("found config for motor", zap.String("name", motorCfg.Name))
			motorCfgs = append(motorCfgs, motorCfg)
		}
	}
	if len(motorCfgs) > 0 {
		commandCfg.MotorCfgs = motorCfgs
	}
	return commandCfg
}

func GetLogConfig(base LogConfig) LogConfig {
	return LogConfig{
		Level:    GetStringEnv("LOG_LEVEL", base.Level),
		Encoding: GetStringEnv("LOG_ENCODING", base.Encoding),
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 10, 32)
		if err != nil {
			zap.L().Warn("env not parsed", zap.String("env", env), zap.Error(err))
			return defaultValue
		} else {
			return int(value)
		}
	}
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
		if err != nil {
			zap.L().Warn("env not parsed", zap.String("env", env), zap.Error(err))
			return defaultValue
		} else {
			return value
		}
	}
}

func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		return strings.ToLower(strings.Trim(envValue, "\r"))
	}
}

// GetRawStringEnv is GetStringEnv without lower casing, for secrets.
func GetRawStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	return strings.Trim(envValue, "\r")
}

func GetDurationEnv(env string, defaultValue time.Duration) time.Duration {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := time.ParseDuration(strings.Trim(envValue, "\r"))
		if err != nil {
			zap.L().Warn("env not parsed", zap.String("env", env), zap.Error(err))
			return defaultValue
		}
		return value
	}
}
