package logdriver

import (
	"testing"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLogDriver(t *testing.T) {
	cfg := config.DefaultConfig().CommandCfg
	driver := NewCommand(cfg, zaptest.NewLogger(t))
	require.NoError(t, driver.Init())

	err := driver.SetMany([]vehicle.DriverCommand{
		{Name: "front_left", Value: 0.4, Min: -1, Max: 1},
		{Name: "turret", Value: 1, Min: -1, Max: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.4, driver.Value("front_left"))
	assert.Equal(t, 0.0, driver.Value("turret"), "unknown motors are ignored")

	require.NoError(t, driver.Stop())
	assert.Equal(t, 0.0, driver.Value("front_left"))
}
