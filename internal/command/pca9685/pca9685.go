package pca9685

import (
	"fmt"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
	"go.uber.org/zap"
)

const (
	FullReverse = 0.0
	FullForward = 1.0
	Neutral     = (FullForward + FullReverse) / 2
	AcRange     = pca9685.ServoRangeDef

	Channels = 16
)

// CommandDriver drives PWM motor controllers from a PCA9685 board over I2C. Every motor has
// its own channel. Controllers read servo style pulses: the shortest pulse is full reverse,
// the longest full forward and the middle one neutral.
type CommandDriver struct {
	cfg         config.CommandConfig
	controllers map[string]Controller
	board       *pca9685.PCA9685
	logger      *zap.Logger
}

type Controller struct {
	name     string
	channel  int
	inverted bool
	trim     float64
	output   *pca9685.Servo
}

func NewCommand(cfg config.CommandConfig, logger *zap.Logger) *CommandDriver {
	return &CommandDriver{
		cfg:    cfg,
		logger: logger.Named("pca9685"),
	}
}

func (c *CommandDriver) Init() error {
	bus, err := i2c.New(c.cfg.Address, c.cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("failed opening i2c bus %s at %#x: %w", c.cfg.I2CDevice, c.cfg.Address, err)
	}

	c.board, err = pca9685.New(bus, nil)
	if err != nil {
		return fmt.Errorf("failed starting pca9685: %w", err)
	}

	controllers := make(map[string]Controller, len(c.cfg.MotorCfgs))
	for _, motorCfg := range c.cfg.MotorCfgs {
		if motorCfg.Channel < 0 || motorCfg.Channel >= Channels {
			c.logger.Warn("motor channel out of range, skipping", zap.String("name", motorCfg.Name), zap.Int("channel", motorCfg.Channel))
			continue
		}

		controllers[motorCfg.Name] = Controller{
			name:     motorCfg.Name,
			channel:  motorCfg.Channel,
			inverted: motorCfg.Inverted,
			trim:     float64(motorCfg.Offset) / 100,
			output: c.board.ServoNew(motorCfg.Channel, &pca9685.ServOptions{
				AcRange:  AcRange,
				MinPulse: float32(motorCfg.MinPulse),
				MaxPulse: float32(motorCfg.MaxPulse),
			}),
		}
		c.logger.Info("controller bound",
			zap.String("name", motorCfg.Name),
			zap.String("group", motorCfg.Group),
			zap.Int("channel", motorCfg.Channel),
		)
	}
	c.controllers = controllers
	return c.Neutral()
}

func (c *CommandDriver) Stop() error {
	c.logger.Info("stopping pca9685 driver")
	return c.Neutral()
}

// Neutral stops every controller.
func (c *CommandDriver) Neutral() error {
	c.logger.Info("setting all controllers to neutral")
	for name, controller := range c.controllers {
		err := controller.output.Fraction(Neutral)
		if err != nil {
			return fmt.Errorf("failed setting %s to neutral: %w", name, err)
		}
	}
	return nil
}

func (c *CommandDriver) SetMany(cmds []vehicle.DriverCommand) error {
	for i := range cmds {
		err := c.Set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// Set ignores commands for motors that are not bound to a channel.
func (c *CommandDriver) Set(cmd vehicle.DriverCommand) error {
	controller, ok := c.controllers[cmd.Name]
	if !ok {
		return nil
	}

	pulse := PulseFraction(cmd, controller.inverted, controller.trim)
	err := controller.output.Fraction(float32(pulse))
	if err != nil {
		return fmt.Errorf("failed setting %s on channel %d to %.2f: %w", cmd.Name, controller.channel, pulse, err)
	}
	return nil
}

// PulseFraction maps a command onto the board's [0,1] pulse fraction. Trim shifts neutral for
// controllers that creep at the nominal center.
func PulseFraction(cmd vehicle.DriverCommand, inverted bool, trim float64) float64 {
	pulse := vehicle.MapToRange(cmd.Value+trim, cmd.Min, cmd.Max, FullReverse, FullForward)
	if inverted {
		pulse = FullForward - pulse
	}
	return pulse
}
