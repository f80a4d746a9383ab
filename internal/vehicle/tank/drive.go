package tank

import (
	"fmt"
	"math"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
)

// DifferentialDrive drives a left and a right group of motor controllers.
type DifferentialDrive struct {
	commandDriver vehicle.CommandDriverIFace
	left          []string
	right         []string
}

// NewDifferentialDrive groups motors by their configured group. Motors in neither group are
// not driven.
func NewDifferentialDrive(commandDriver vehicle.CommandDriverIFace, motors []config.MotorConfig) (*DifferentialDrive, error) {
	drive := &DifferentialDrive{
		commandDriver: commandDriver,
		left:          make([]string, 0, len(motors)),
		right:         make([]string, 0, len(motors)),
	}

	for i := range motors {
		switch motors[i].Group {
		case LeftGroup:
			drive.left = append(drive.left, motors[i].Name)
		case RightGroup:
			drive.right = append(drive.right, motors[i].Name)
		}
	}

	if len(drive.left) == 0 || len(drive.right) == 0 {
		return nil, fmt.Errorf("tank needs at least one motor per side, got %d left and %d right", len(drive.left), len(drive.right))
	}
	return drive, nil
}

// TankDrive commands each side. Values are clamped to [-1,1] and, with squareInputs, squared
// keeping their sign for finer control at low speed.
func (d *DifferentialDrive) TankDrive(left, right float64, squareInputs bool) error {
	left = clamp(left)
	right = clamp(right)

	if squareInputs {
		left = math.Copysign(left*left, left)
		right = math.Copysign(right*right, right)
	}

	err := d.commandDriver.SetMany(d.buildCommands(left, right))
	if err != nil {
		return fmt.Errorf("failed setting tank drive commands: %w", err)
	}
	return nil
}

func (d *DifferentialDrive) buildCommands(left, right float64) []vehicle.DriverCommand {
	commands := make([]vehicle.DriverCommand, 0, len(d.left)+len(d.right))
	for _, name := range d.left {
		commands = append(commands, vehicle.DriverCommand{
			Name:  name,
			Value: left,
			Min:   MinOutput,
			Max:   MaxOutput,
		})
	}
	for _, name := range d.right {
		commands = append(commands, vehicle.DriverCommand{
			Name:  name,
			Value: right,
			Min:   MinOutput,
			Max:   MaxOutput,
		})
	}
	return commands
}

func clamp(value float64) float64 {
	if value > MaxOutput {
		return MaxOutput
	} else if value < MinOutput {
		return MinOutput
	}
	return value
}
