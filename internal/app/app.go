package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Speshl/gorrc_tank/internal/command/logdriver"
	"github.com/Speshl/gorrc_tank/internal/command/pca9685"
	pipwm "github.com/Speshl/gorrc_tank/internal/command/pi_pwm"
	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/input"
	"github.com/Speshl/gorrc_tank/internal/nettable"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"github.com/Speshl/gorrc_tank/internal/vehicle/tank"
	"github.com/simulatedsimian/joystick"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownCommandDriver = errors.New("unknown command driver")

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	Cfg    config.Config
	logger *zap.Logger

	relay     *nettable.Relay
	robot     *tank.Tank
	telemetry *Telemetry
}

func NewApp(cfg config.Config, client nettable.SocketClient, logger *zap.Logger) (*App, error) {
	return newApp(cfg, client, input.Opener(joystick.Open), ProcNetStats(), logger)
}

func newApp(cfg config.Config, client nettable.SocketClient, open input.Opener, netStats NetStatsFunc, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	commandDriver, err := NewCommandDriver(cfg.CommandCfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	relay := nettable.NewRelay(cfg.ServerCfg, cfg.DriveCfg.Mode, client, logger)
	prober := input.NewProber(cfg.DriveCfg, open, relay, logger)

	robot, err := tank.NewTank(cfg.DriveCfg, cfg.CommandCfg.MotorCfgs, prober, commandDriver, relay.Modes(), logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed creating tank: %w", err)
	}

	app := &App{
		ctx:       ctx,
		ctxCancel: cancel,
		Cfg:       cfg,
		logger:    logger,
		relay:     relay,
		robot:     robot,
	}

	if cfg.ServerCfg.TelemetryOn {
		app.telemetry = NewTelemetry(cfg.ServerCfg, relay.RobotID(), robot, relay, netStats, logger)
	}
	return app, nil
}

// NewCommandDriver picks the motor controller backend named in the config.
func NewCommandDriver(cfg config.CommandConfig, logger *zap.Logger) (vehicle.CommandDriverIFace, error) {
	switch cfg.CommandDriver {
	case "pca9685":
		return pca9685.NewCommand(cfg, logger), nil
	case "pi_pwm":
		return pipwm.NewCommand(cfg, logger), nil
	case "log":
		return logdriver.NewCommand(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommandDriver, cfg.CommandDriver)
	}
}

func (a *App) RegisterHandlers() error {
	return a.relay.RegisterHandlers()
}

// Stop ends a running Start.
func (a *App) Stop() {
	a.ctxCancel()
}

func (a *App) Start() error {
	group, groupCtx := errgroup.WithContext(a.ctx)
	a.logger.Info("starting...")

	defer func() {
		a.logger.Info("stopping...")
		a.relay.Close()
	}()

	err := a.robot.Init()
	if err != nil {
		return fmt.Errorf("failed initializing robot: %w", err)
	}

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChannel)
		select {
		case sig := <-signalChannel:
			a.logger.Info("received signal", zap.String("signal", sig.String()))
			a.ctxCancel()
			return nil
		case <-groupCtx.Done():
			a.logger.Debug("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	//Send connect, healthchecks and release stale keys
	group.Go(func() error {
		return a.relay.Start(groupCtx)
	})

	if a.telemetry != nil {
		group.Go(func() error {
			return a.telemetry.Start(groupCtx)
		})
	}

	group.Go(func() error {
		return a.robot.Start(groupCtx)
	})

	err = group.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Info("context was cancelled")
			return nil
		}
		return fmt.Errorf("robot stopping due to error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}
