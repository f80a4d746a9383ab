package pipwm

import (
	"testing"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDutyCycle(t *testing.T) {
	controller := Controller{name: "left", minValue: 1000, maxValue: 2000}
	inverted := Controller{name: "right", minValue: 1000, maxValue: 2000, inverted: true}
	trimmed := Controller{name: "left", minValue: 1000, maxValue: 2000, trim: 0.02}

	cmd := func(value float64) vehicle.DriverCommand {
		return vehicle.DriverCommand{Name: "left", Value: value, Min: -1, Max: 1}
	}

	assert.Equal(t, uint32(1500), controller.Neutral())
	assert.Equal(t, uint32(1500), DutyCycle(cmd(0), controller))
	assert.Equal(t, uint32(2000), DutyCycle(cmd(1), controller))
	assert.Equal(t, uint32(1000), DutyCycle(cmd(-1), controller))
	assert.Equal(t, uint32(1000), DutyCycle(cmd(1), inverted))
	assert.Equal(t, uint32(1750), DutyCycle(cmd(-0.5), inverted))
	assert.Equal(t, uint32(1500), DutyCycle(cmd(0), inverted))
	assert.Equal(t, uint32(1510), DutyCycle(cmd(0), trimmed))
}

func TestAssignPinsDefaultMotors(t *testing.T) {
	assignments, err := AssignPins(config.DefaultMotorConfigs())
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	assert.Equal(t, LeftPin, assignments[0].Pin)
	assert.Equal(t, "front_left", assignments[0].Motor.Name)
	assert.Equal(t, config.LeftGroup, assignments[0].Motor.Group)

	assert.Equal(t, RightPin, assignments[1].Pin)
	assert.Equal(t, "front_right", assignments[1].Motor.Name)
	assert.Equal(t, config.RightGroup, assignments[1].Motor.Group)
}

func TestAssignPinsNeedsBothSides(t *testing.T) {
	_, err := AssignPins([]config.MotorConfig{
		{Name: "front_left", Group: config.LeftGroup},
		{Name: "back_left", Group: config.LeftGroup},
	})
	assert.Error(t, err)
}
