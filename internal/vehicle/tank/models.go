package tank

import (
	"sync"
	"time"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/input"
	"github.com/Speshl/gorrc_tank/internal/mixer"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"go.uber.org/zap"
)

const (
	LeftGroup  = config.LeftGroup
	RightGroup = config.RightGroup

	MaxOutput = mixer.MaxOutput
	MinOutput = mixer.MinOutput

	OverdriveLogInterval = time.Second
)

// SourceProber finds the input sources at teleop entry.
type SourceProber interface {
	Probe() input.Sources
}

type Tank struct {
	cfg    config.DriveConfig
	lock   sync.RWMutex
	logger *zap.Logger

	prober        SourceProber
	sources       input.Sources
	commandDriver vehicle.CommandDriverIFace
	drive         *DifferentialDrive
	modeChannel   <-chan string

	enabled bool

	lastPower        mixer.PowerPair
	lastOverdriveLog time.Time
}

// Status is a snapshot of the last tick for telemetry.
type Status struct {
	Enabled bool
	Power   mixer.PowerPair
	Sources []string
}
