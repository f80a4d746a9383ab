package tank

import (
	"context"
	"fmt"
	"time"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/input"
	"github.com/Speshl/gorrc_tank/internal/mixer"
	"github.com/Speshl/gorrc_tank/internal/models"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"go.uber.org/zap"
)

var _ vehicle.Vehicle = (*Tank)(nil)

// NewTank builds the robot. modeChannel carries teleop/disabled requests from the driver
// station and may be nil when AutoEnable is set.
func NewTank(cfg config.DriveConfig, motors []config.MotorConfig, prober SourceProber, commandDriver vehicle.CommandDriverIFace, modeChannel <-chan string, logger *zap.Logger) (*Tank, error) {
	drive, err := NewDifferentialDrive(commandDriver, motors)
	if err != nil {
		return nil, err
	}

	logger = logger.Named("tank")
	logger.Info("setting up tank", zap.String("mode", cfg.Mode), zap.Int("motors", len(motors)))
	return &Tank{
		cfg:           cfg,
		logger:        logger,
		prober:        prober,
		commandDriver: commandDriver,
		drive:         drive,
		modeChannel:   modeChannel,
	}, nil
}

// Mix sums the contribution of every available source. The result is not clamped.
func Mix(sources input.Sources) mixer.PowerPair {
	return mixer.Sum(sources.Contributions()...)
}

func (t *Tank) Init() error {
	err := t.commandDriver.Init()
	if err != nil {
		return fmt.Errorf("failed initializing tank command interface: %w", err)
	}

	//Motors to neutral
	return t.drive.TankDrive(0, 0, false)
}

// TeleopInit enters teleop and probes for input sources. Sources from a previous teleop
// period are released.
func (t *Tank) TeleopInit() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.logger.Info("entering teleop")
	t.sources.Close()
	t.sources = t.prober.Probe()
	t.enabled = true
}

// Disable leaves teleop, releases the sources and puts the motors in neutral.
func (t *Tank) Disable() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.logger.Info("disabling")
	t.enabled = false
	t.sources.Close()
	t.sources = input.Sources{}
	t.lastPower = mixer.PowerPair{}
	return t.drive.TankDrive(0, 0, false)
}

func (t *Tank) Enabled() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.enabled
}

// TeleopPeriodic is one control tick: read every source, mix, actuate.
func (t *Tank) TeleopPeriodic() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	power := Mix(t.sources)
	if power.Overdrive() && time.Since(t.lastOverdriveLog) > OverdriveLogInterval {
		t.lastOverdriveLog = time.Now()
		t.logger.Warn("mixed power exceeds unit range, actuator will clamp",
			zap.Float64("left", power.Left),
			zap.Float64("right", power.Right),
		)
	}

	err := t.drive.TankDrive(power.Left, power.Right, t.cfg.SquareInputs)
	if err != nil {
		return err
	}
	t.lastPower = power
	return nil
}

// Start runs the control loop until ctx ends. Ticks only actuate while teleop is enabled.
// A failed tick is logged and the loop keeps going.
func (t *Tank) Start(ctx context.Context) error {
	t.logger.Info("starting control loop", zap.Duration("period", t.cfg.TickPeriod), zap.Bool("auto_enable", t.cfg.AutoEnable))
	defer func() {
		err := t.Stop()
		if err != nil {
			t.logger.Error("failed stopping tank", zap.Error(err))
		}
	}()

	if t.cfg.AutoEnable {
		t.TeleopInit()
	}

	modeChannel := t.modeChannel
	tickTicker := time.NewTicker(t.cfg.TickPeriod)
	defer tickTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("stopping control loop", zap.Error(ctx.Err()))
			return ctx.Err()
		case mode, ok := <-modeChannel:
			if !ok {
				t.logger.Info("mode channel closed")
				modeChannel = nil
				continue
			}
			switch mode {
			case models.ModeTeleop:
				t.TeleopInit()
			case models.ModeDisabled:
				err := t.Disable()
				if err != nil {
					t.logger.Error("failed disabling", zap.Error(err))
				}
			}
		case <-tickTicker.C:
			if !t.Enabled() {
				continue
			}
			err := t.TeleopPeriodic()
			if err != nil {
				t.logger.Error("teleop tick failed", zap.Error(err))
			}
		}
	}
}

func (t *Tank) Stop() error {
	t.logger.Info("stopping tank")

	t.lock.Lock()
	defer t.lock.Unlock()

	t.enabled = false
	t.sources.Close()
	t.sources = input.Sources{}
	t.lastPower = mixer.PowerPair{}

	err := t.drive.TankDrive(0, 0, false)
	if err != nil {
		t.logger.Error("failed setting neutral on stop", zap.Error(err))
	}

	err = t.commandDriver.Stop()
	if err != nil {
		return fmt.Errorf("failed stopping command driver: %w", err)
	}
	return nil
}

func (t *Tank) Status() Status {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return Status{
		Enabled: t.enabled,
		Power:   t.lastPower,
		Sources: t.sources.Names(),
	}
}
