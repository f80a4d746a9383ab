package pipwm

import (
	"fmt"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/stianeikeland/go-rpio/v4"
	"go.uber.org/zap"
)

const (
	Frequency   = 100000
	CycleLength = uint32(2000)

	LeftPin  = 12
	RightPin = 13
)

// CommandDriver drives one motor controller per side from the Pi's two hardware PWM pins.
// Controllers of the same side are wired to the same pin, so only the first motor of each
// group gets a pin and commands for the others are dropped.
type CommandDriver struct {
	cfg         config.CommandConfig
	controllers map[string]Controller
	logger      *zap.Logger
}

// Controller is one PWM motor controller. Duty cycles are in the units of CycleLength, so a
// 1000-2000 pulse range maps straight onto the cycle.
type Controller struct {
	name     string
	inverted bool
	trim     float64
	pin      rpio.Pin
	maxValue uint32
	minValue uint32
}

// Neutral is the stopped duty cycle, the middle of the pulse range.
func (c Controller) Neutral() uint32 {
	return (c.maxValue + c.minValue) / 2
}

type PinAssignment struct {
	Pin   int
	Motor config.MotorConfig
}

// AssignPins gives the left pin to the first left-group motor and the right pin to the
// first right-group motor. Both sides must be present.
func AssignPins(motorCfgs []config.MotorConfig) ([]PinAssignment, error) {
	pins := map[string]int{
		config.LeftGroup:  LeftPin,
		config.RightGroup: RightPin,
	}

	assignments := make([]PinAssignment, 0, len(pins))
	for _, group := range []string{config.LeftGroup, config.RightGroup} {
		found := false
		for i := range motorCfgs {
			if motorCfgs[i].Group == group {
				assignments = append(assignments, PinAssignment{Pin: pins[group], Motor: motorCfgs[i]})
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("pi pwm needs a motor in the %s group", group)
		}
	}
	return assignments, nil
}

func NewCommand(cfg config.CommandConfig, logger *zap.Logger) *CommandDriver {
	return &CommandDriver{
		cfg:    cfg,
		logger: logger.Named("pi_pwm"),
	}
}

func (c *CommandDriver) Init() error {
	assignments, err := AssignPins(c.cfg.MotorCfgs)
	if err != nil {
		return err
	}

	err = rpio.Open()
	if err != nil {
		return fmt.Errorf("failed opening rpio: %w", err)
	}

	controllers := make(map[string]Controller, len(assignments))
	for _, assignment := range assignments {
		motorCfg := assignment.Motor
		controller := Controller{
			name:     motorCfg.Name,
			inverted: motorCfg.Inverted,
			trim:     float64(motorCfg.Offset) / 100,
			pin:      rpio.Pin(assignment.Pin),
			maxValue: uint32(motorCfg.MaxPulse),
			minValue: uint32(motorCfg.MinPulse),
		}
		controller.pin.Mode(rpio.Pwm)
		controller.pin.Freq(Frequency)
		controllers[motorCfg.Name] = controller
		c.logger.Info("controller bound",
			zap.String("name", motorCfg.Name),
			zap.String("group", motorCfg.Group),
			zap.Int("pin", assignment.Pin),
		)
	}

	if len(c.cfg.MotorCfgs) > len(controllers) {
		c.logger.Info("remaining motors share their side's pin", zap.Int("configured", len(c.cfg.MotorCfgs)))
	}
	c.controllers = controllers
	c.Neutral()
	return nil
}

func (c *CommandDriver) Stop() error {
	c.Neutral()
	err := rpio.Close()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}

// Neutral stops every controller.
func (c *CommandDriver) Neutral() {
	c.logger.Info("setting all controllers to neutral")
	for _, controller := range c.controllers {
		controller.pin.DutyCycle(controller.Neutral(), CycleLength)
	}
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

func (c *CommandDriver) Set(cmd vehicle.DriverCommand) error {
	controller, ok := c.controllers[cmd.Name]
	if ok {
		controller.pin.DutyCycle(DutyCycle(cmd, controller), CycleLength)
	}
	return nil
}

// DutyCycle maps a command onto the controller's pulse range. Trim shifts neutral for
// controllers that creep at the nominal center.
func DutyCycle(cmd vehicle.DriverCommand, controller Controller) uint32 {
	mappedValue := vehicle.MapToRange(cmd.Value+controller.trim, cmd.Min, cmd.Max, float64(controller.minValue), float64(controller.maxValue))
	if controller.inverted {
		mappedValue = float64(controller.maxValue+controller.minValue) - mappedValue
	}
	return uint32(mappedValue)
}
