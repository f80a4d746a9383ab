package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/models"
	"github.com/Speshl/gorrc_tank/internal/nettable"
	"github.com/Speshl/gorrc_tank/internal/vehicle/tank"
	"github.com/google/uuid"
	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

type StatusProvider interface {
	Status() tank.Status
}

type Emitter interface {
	Emit(event string, msg any) error
}

// NetStatsFunc returns the current per-interface network counters.
type NetStatsFunc func() (procfs.NetDev, error)

// ProcNetStats reads network counters for this process from /proc.
func ProcNetStats() NetStatsFunc {
	return func() (procfs.NetDev, error) {
		p, err := procfs.Self()
		if err != nil {
			return nil, fmt.Errorf("procfs could not get process: %w", err)
		}
		return p.NetDev()
	}
}

type Telemetry struct {
	cfg      config.ServerConfig
	robotID  uuid.UUID
	status   StatusProvider
	emitter  Emitter
	netStats NetStatsFunc
	logger   *zap.Logger
}

func NewTelemetry(cfg config.ServerConfig, robotID uuid.UUID, status StatusProvider, emitter Emitter, netStats NetStatsFunc, logger *zap.Logger) *Telemetry {
	return &Telemetry{
		cfg:      cfg,
		robotID:  robotID,
		status:   status,
		emitter:  emitter,
		netStats: netStats,
		logger:   logger.Named("telemetry"),
	}
}

// Build snapshots the robot state. Missing network stats only drop the network line.
func (t *Telemetry) Build(now time.Time) models.Telemetry {
	status := t.status.Status()

	lines := make([]string, 0, 2)
	netLine, err := t.netLine()
	if err != nil {
		t.logger.Debug("no network stats", zap.Error(err))
	} else {
		lines = append(lines, netLine)
	}

	enabled := "disabled"
	if status.Enabled {
		enabled = "teleop"
	}
	lines = append(lines, fmt.Sprintf("Mode:%s | Left:%.2f | Right:%.2f | Sources:%d",
		enabled,
		status.Power.Left,
		status.Power.Right,
		len(status.Sources),
	))

	return models.Telemetry{
		RobotId:   t.robotID,
		Left:      status.Power.Left,
		Right:     status.Power.Right,
		Sources:   status.Sources,
		Lines:     lines,
		TimeStamp: now.UnixMilli(),
	}
}

func (t *Telemetry) netLine() (string, error) {
	if t.netStats == nil {
		return "", fmt.Errorf("network stats not configured")
	}

	netDev, err := t.netStats()
	if err != nil {
		return "", fmt.Errorf("failed getting netstat: %w", err)
	}

	netInfo, ok := netDev[t.cfg.TelemetryIface]
	if !ok {
		return "", fmt.Errorf("failed getting %s stats: not found", t.cfg.TelemetryIface)
	}

	return fmt.Sprintf("RxPkt:%d | RxErr:%d | RxDrop: %d | TxPkt:%d | TxErr:%d | TxDrop: %d",
		netInfo.RxPackets,
		netInfo.RxErrors,
		netInfo.RxDropped,
		netInfo.TxPackets,
		netInfo.TxErrors,
		netInfo.TxDropped,
	), nil
}

func (t *Telemetry) Start(ctx context.Context) error {
	t.logger.Info("starting telemetry",
		zap.Duration("period", t.cfg.TelemetryPeriod),
		zap.String("interface", t.cfg.TelemetryIface),
	)

	telemetryTicker := time.NewTicker(t.cfg.TelemetryPeriod)
	defer telemetryTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telemetry stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case now := <-telemetryTicker.C:
			err := t.emitter.Emit(nettable.TelemetryEvent, t.Build(now))
			if err != nil {
				t.logger.Warn("failed sending telemetry", zap.Error(err))
			}
		}
	}
}
