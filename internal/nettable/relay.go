package nettable

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/models"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

const (
	KeysEvent      = "keys"
	ModeEvent      = "mode"
	ReplyEvent     = "reply"
	RegisterEvent  = "register_success"
	ConnectEvent   = "robot_connect"
	HealthyEvent   = "robot_healthy"
	TelemetryEvent = "telemetry"
)

// SocketClient is the part of *socketio.Client the relay uses.
type SocketClient interface {
	OnEvent(event string, f interface{})
	Connect() error
	Emit(event string, args ...interface{})
	Close() error
}

type Relay struct {
	cfg       config.ServerConfig
	driveMode string
	robotID   uuid.UUID

	client      SocketClient
	table       *Table
	modeChannel chan string
	logger      *zap.Logger

	now func() time.Time
}

func NewRelay(cfg config.ServerConfig, driveMode string, client SocketClient, logger *zap.Logger) *Relay {
	return &Relay{
		cfg:         cfg,
		driveMode:   driveMode,
		robotID:     uuid.New(),
		client:      client,
		table:       NewTable(),
		modeChannel: make(chan string, 10),
		logger:      logger.Named("relay"),
		now:         time.Now,
	}
}

func (r *Relay) RobotID() uuid.UUID {
	return r.robotID
}

// Table returns the key table, or nil until the driver station has published keys.
func (r *Relay) Table() *Table {
	if !r.table.Established() {
		return nil
	}
	return r.table
}

// Modes delivers teleop/disabled changes requested by the driver station.
func (r *Relay) Modes() <-chan string {
	return r.modeChannel
}

func (r *Relay) RegisterHandlers() error {
	r.logger.Info("registering handlers")
	r.client.OnEvent(ReplyEvent, func(s socketio.Conn, msg string) {
		r.logger.Debug("received reply", zap.String("msg", msg))
	})

	r.client.OnEvent(KeysEvent, r.onKeys)

	r.client.OnEvent(ModeEvent, r.onMode)

	r.client.OnEvent(RegisterEvent, r.onRegisterSuccess)

	r.logger.Info("attempting to connect to driver station", zap.String("server", r.cfg.Server))
	err := r.client.Connect() //Client must have atleast 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to driver station: %w", err)
	}
	r.logger.Info("connected to driver station")
	return nil
}

// Start announces the robot, then sends heartbeats and releases held keys when the driver
// station goes quiet, until ctx ends.
func (r *Relay) Start(ctx context.Context) error {
	err := r.Emit(ConnectEvent, models.ConnectReq{
		Id:        r.robotID,
		Key:       r.cfg.Key,
		Password:  r.cfg.Password,
		DriveMode: r.driveMode,
	})
	if err != nil {
		return err
	}

	healthTicker := time.NewTicker(r.cfg.HealthInterval)
	defer healthTicker.Stop()

	safetyTicker := time.NewTicker(r.cfg.KeyTimeout)
	defer safetyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-healthTicker.C:
			r.logger.Debug("healthcheck: healthy")
			r.client.Emit(HealthyEvent, "")
		case <-safetyTicker.C:
			if r.table.Expire(r.now(), r.cfg.KeyTimeout) {
				r.logger.Warn("no key update in time, releasing all keys", zap.Duration("timeout", r.cfg.KeyTimeout))
			}
		}
	}
}

func (r *Relay) Emit(event string, msg any) error {
	encodedMsg, err := encode(msg)
	if err != nil {
		return fmt.Errorf("failed encoding %s: %w", event, err)
	}
	r.client.Emit(event, encodedMsg)
	return nil
}

func (r *Relay) Close() error {
	return r.client.Close()
}

func (r *Relay) onKeys(s socketio.Conn, msg string) {
	state := models.KeyState{}
	err := decode(msg, &state)
	if err != nil {
		r.logger.Warn("key state failed unmarshaling", zap.Error(err), zap.String("msg", msg))
		return
	}

	if !r.table.Established() {
		r.logger.Info("key table established")
	}

	if !r.table.Update(state, r.now()) {
		r.logger.Debug("dropping out of order key state", zap.Int64("time_stamp", state.TimeStamp))
	}
}

func (r *Relay) onMode(s socketio.Conn, msg string) {
	change := models.ModeChange{}
	err := decode(msg, &change)
	if err != nil {
		r.logger.Warn("mode change failed unmarshaling", zap.Error(err), zap.String("msg", msg))
		return
	}

	switch change.Mode {
	case models.ModeTeleop, models.ModeDisabled:
	default:
		r.logger.Warn("unsupported mode requested", zap.String("mode", change.Mode))
		return
	}

	select {
	case r.modeChannel <- change.Mode:
	default:
		r.logger.Warn("mode channel full, skipping", zap.String("mode", change.Mode))
	}
}

func (r *Relay) onRegisterSuccess(s socketio.Conn, msg string) {
	resp := models.ConnectResp{}
	err := decode(msg, &resp)
	if err != nil {
		r.logger.Warn("register response failed unmarshaling", zap.Error(err), zap.String("msg", msg))
		return
	}
	r.logger.Info("robot registered", zap.String("name", resp.Name), zap.String("short_name", resp.ShortName))
}

func encode(msg any) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(msg string, out any) error {
	return json.Unmarshal([]byte(msg), out)
}
