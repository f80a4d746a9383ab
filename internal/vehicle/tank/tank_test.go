package tank

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/input"
	"github.com/Speshl/gorrc_tank/internal/mixer"
	"github.com/Speshl/gorrc_tank/internal/models"
	"github.com/Speshl/gorrc_tank/internal/nettable"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDriver struct {
	lock     sync.Mutex
	inited   bool
	stopped  bool
	setErr   error
	stopErr  error
	last     map[string]float64
	setCalls int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{last: make(map[string]float64)}
}

func (f *fakeDriver) Init() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.inited = true
	return nil
}

func (f *fakeDriver) Set(cmd vehicle.DriverCommand) error {
	return f.SetMany([]vehicle.DriverCommand{cmd})
}

func (f *fakeDriver) SetMany(cmds []vehicle.DriverCommand) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	for _, cmd := range cmds {
		f.last[cmd.Name] = cmd.Value
	}
	return nil
}

func (f *fakeDriver) Stop() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.stopped = true
	return f.stopErr
}

func (f *fakeDriver) value(name string) float64 {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.last[name]
}

func (f *fakeDriver) calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.setCalls
}

type fakeAnalog struct {
	left, right float64
	connected   bool
}

func (f *fakeAnalog) IsConnected() bool { return f.connected }
func (f *fakeAnalog) Name() string      { return "fake" }
func (f *fakeAnalog) VerticalAxis(side input.Side) float64 {
	if side == input.SideRight {
		return f.right
	}
	return f.left
}

type fakeProber struct {
	sources input.Sources
	probes  int
}

func (f *fakeProber) Probe() input.Sources {
	f.probes++
	return f.sources
}

func driveConfig(square bool) config.DriveConfig {
	cfg := config.DefaultConfig().DriveCfg
	cfg.SquareInputs = square
	cfg.TickPeriod = 5 * time.Millisecond
	return cfg
}

func newTestTank(t *testing.T, square bool, sources input.Sources) (*Tank, *fakeDriver, *fakeProber) {
	t.Helper()
	driver := newFakeDriver()
	prober := &fakeProber{sources: sources}
	tank, err := NewTank(driveConfig(square), config.DefaultMotorConfigs(), prober, driver, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return tank, driver, prober
}

func keyTable(entries map[string]bool) *nettable.Table {
	table := nettable.NewTable()
	table.Update(models.KeyState{Entries: entries}, time.Now())
	return table
}

func TestNewTankNeedsBothSides(t *testing.T) {
	motors := []config.MotorConfig{{Name: "front_left", Group: LeftGroup}}
	_, err := NewTank(driveConfig(false), motors, &fakeProber{}, newFakeDriver(), nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestInitSetsNeutral(t *testing.T) {
	tank, driver, _ := newTestTank(t, false, input.Sources{})
	require.NoError(t, tank.Init())

	assert.True(t, driver.inited)
	for _, name := range []string{"front_left", "back_left", "front_right", "back_right"} {
		assert.Equal(t, 0.0, driver.value(name))
	}
}

func TestNoSourcesDrivesZero(t *testing.T) {
	tank, driver, prober := newTestTank(t, false, input.Sources{})
	tank.TeleopInit()
	assert.Equal(t, 1, prober.probes)

	require.NoError(t, tank.TeleopPeriodic())
	assert.Equal(t, 1, driver.calls())
	assert.Equal(t, 0.0, driver.value("front_left"))
	assert.Equal(t, 0.0, driver.value("front_right"))
	assert.Equal(t, mixer.PowerPair{}, tank.Status().Power)
}

func TestTeleopPeriodicMixesAdditively(t *testing.T) {
	sources := input.Sources{
		Sticks:  input.NewAnalog(&fakeAnalog{left: -0.5, right: -0.5, connected: true}, input.StandardPolarity),
		Gamepad: input.NewAnalog(&fakeAnalog{left: 0.5, right: 0.5, connected: true}, input.InvertedPolarity),
	}
	tank, driver, _ := newTestTank(t, false, sources)
	tank.TeleopInit()

	require.NoError(t, tank.TeleopPeriodic())
	status := tank.Status()
	assert.Equal(t, mixer.PowerPair{Left: 1, Right: 1}, status.Power)
	assert.Equal(t, []string{"sticks", "gamepad"}, status.Sources)

	assert.Equal(t, 1.0, driver.value("front_left"))
	assert.Equal(t, 1.0, driver.value("back_right"))
}

func TestTeleopPeriodicOverdriveIsClampedAtActuator(t *testing.T) {
	sources := input.Sources{
		Gamepad: input.NewAnalog(&fakeAnalog{left: -1, right: 0, connected: true}, input.StandardPolarity),
		Keys:    input.NewKeys(keyTable(map[string]bool{"up": true, "d": true})),
	}
	tank, driver, _ := newTestTank(t, false, sources)
	tank.TeleopInit()

	require.NoError(t, tank.TeleopPeriodic())

	// gamepad (1, 0) plus keyboard (1, 0)
	assert.Equal(t, mixer.PowerPair{Left: 2, Right: 0}, tank.Status().Power, "the mix itself is not clamped")
	assert.Equal(t, 1.0, driver.value("front_left"))
	assert.Equal(t, 0.0, driver.value("front_right"))
}

func TestTeleopPeriodicSquaresInputs(t *testing.T) {
	sources := input.Sources{
		Gamepad: input.NewAnalog(&fakeAnalog{left: -0.5, right: 0.5, connected: true}, input.StandardPolarity),
	}
	tank, driver, _ := newTestTank(t, true, sources)
	tank.TeleopInit()

	require.NoError(t, tank.TeleopPeriodic())
	assert.InDelta(t, 0.25, driver.value("back_left"), 1e-9)
	assert.InDelta(t, -0.25, driver.value("back_right"), 1e-9)
}

func TestTeleopPeriodicDisconnectedSource(t *testing.T) {
	sources := input.Sources{
		Gamepad: input.NewAnalog(&fakeAnalog{left: -1, right: -1, connected: false}, input.StandardPolarity),
	}
	tank, driver, _ := newTestTank(t, false, sources)
	tank.TeleopInit()

	require.NoError(t, tank.TeleopPeriodic())
	assert.Equal(t, 0.0, driver.value("front_left"))
}

func TestTeleopPeriodicDriverError(t *testing.T) {
	tank, driver, _ := newTestTank(t, false, input.Sources{})
	driver.setErr = errors.New("i2c gone")

	err := tank.TeleopPeriodic()
	assert.ErrorIs(t, err, driver.setErr)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	sources := input.Sources{
		Keys: input.NewKeys(keyTable(map[string]bool{"w": true})),
	}
	tank, driver, prober := newTestTank(t, false, sources)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tank.Start(ctx)
	}()

	assert.Eventually(t, func() bool {
		return driver.value("front_left") == 1.0 && driver.value("back_right") == 1.0
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, prober.probes)

	assert.True(t, driver.stopped)
	assert.Equal(t, 0.0, driver.value("front_left"), "stop leaves the motors in neutral")
	assert.Empty(t, tank.Status().Sources)
}

func TestDifferentialDriveCommands(t *testing.T) {
	driver := newFakeDriver()
	motors := []config.MotorConfig{
		{Name: "l", Group: LeftGroup},
		{Name: "r", Group: RightGroup},
		{Name: "arm", Group: "arm"},
	}
	drive, err := NewDifferentialDrive(driver, motors)
	require.NoError(t, err)

	cmds := drive.buildCommands(0.3, -0.4)
	require.Len(t, cmds, 2)
	assert.Equal(t, vehicle.DriverCommand{Name: "l", Value: 0.3, Min: -1, Max: 1}, cmds[0])
	assert.Equal(t, vehicle.DriverCommand{Name: "r", Value: -0.4, Min: -1, Max: 1}, cmds[1])

	require.NoError(t, drive.TankDrive(-3, 3, true))
	assert.Equal(t, -1.0, driver.value("l"))
	assert.Equal(t, 1.0, driver.value("r"))
	_, armSet := driver.last["arm"]
	assert.False(t, armSet)
}

func TestStartFollowsDriverStationModes(t *testing.T) {
	cfg := driveConfig(false)
	cfg.AutoEnable = false
	driver := newFakeDriver()
	modes := make(chan string, 2)
	prober := &fakeProber{sources: input.Sources{
		Keys: input.NewKeys(keyTable(map[string]bool{"up": true})),
	}}

	tank, err := NewTank(cfg, config.DefaultMotorConfigs(), prober, driver, modes, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tank.Start(ctx)
	}()

	// disabled until the driver station asks for teleop
	time.Sleep(30 * time.Millisecond)
	assert.False(t, tank.Enabled())
	assert.Equal(t, 0, driver.calls())

	modes <- models.ModeTeleop
	assert.Eventually(t, func() bool {
		return driver.value("front_left") == 1.0
	}, time.Second, 5*time.Millisecond)
	assert.True(t, tank.Status().Enabled)

	modes <- models.ModeDisabled
	assert.Eventually(t, func() bool {
		return !tank.Enabled() && driver.value("front_left") == 0.0
	}, time.Second, 5*time.Millisecond)

	close(modes)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, prober.probes)
}

func TestStartLogsStopFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	driver := newFakeDriver()
	driver.stopErr = errors.New("i2c gone")

	tank, err := NewTank(driveConfig(false), config.DefaultMotorConfigs(), &fakeProber{}, driver, nil, zap.New(core))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tank.Start(ctx), context.Canceled)

	assert.True(t, driver.stopped)
	entries := logs.FilterMessage("failed stopping tank").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "i2c gone")
}
