package input

import (
	"strings"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/mixer"
	"github.com/Speshl/gorrc_tank/internal/nettable"
	"go.uber.org/zap"
)

// KeyTableProvider hands out the relay key table, nil while it is not established.
type KeyTableProvider interface {
	Table() *nettable.Table
}

// Analog is an analog source with the polarity of each side resolved at probe time. The
// sides differ when two joysticks of different makes drive one robot.
type Analog struct {
	Source AnalogSource
	Left   Polarity
	Right  Polarity
}

// NewAnalog is an analog source whose sides share one polarity.
func NewAnalog(source AnalogSource, polarity Polarity) *Analog {
	return &Analog{
		Source: source,
		Left:   polarity,
		Right:  polarity,
	}
}

// Power is the source's contribution for this tick. A disconnected source gives zero.
func (a *Analog) Power() mixer.PowerPair {
	if a == nil || a.Source == nil || !a.Source.IsConnected() {
		return mixer.PowerPair{}
	}
	return mixer.PowerPair{
		Left:  a.Left.Forward(a.Source.VerticalAxis(SideLeft)),
		Right: a.Right.Forward(a.Source.VerticalAxis(SideRight)),
	}
}

// Sources is the set of inputs found at teleop entry. A nil field is an unavailable source.
type Sources struct {
	Sticks  *Analog
	Gamepad *Analog
	Keys    *Keys
}

func (s Sources) Count() int {
	count := 0
	if s.Sticks != nil {
		count++
	}
	if s.Gamepad != nil {
		count++
	}
	if s.Keys != nil {
		count++
	}
	return count
}

// Names lists the available sources, for logs and telemetry.
func (s Sources) Names() []string {
	names := make([]string, 0, 3)
	if s.Sticks != nil {
		names = append(names, "sticks")
	}
	if s.Gamepad != nil {
		names = append(names, "gamepad")
	}
	if s.Keys != nil {
		names = append(names, "keyboard")
	}
	return names
}

// Contributions returns one power pair per available source.
func (s Sources) Contributions() []mixer.PowerPair {
	contributions := make([]mixer.PowerPair, 0, 3)
	if s.Sticks != nil {
		contributions = append(contributions, s.Sticks.Power())
	}
	if s.Gamepad != nil {
		contributions = append(contributions, s.Gamepad.Power())
	}
	if s.Keys != nil {
		contributions = append(contributions, mixer.KeyboardPower(s.Keys.Flags()))
	}
	return contributions
}

type closer interface {
	Close()
}

// Close releases any opened devices.
func (s Sources) Close() {
	for _, analog := range []*Analog{s.Sticks, s.Gamepad} {
		if analog == nil {
			continue
		}
		if c, ok := analog.Source.(closer); ok {
			c.Close()
		}
	}
}

type Prober struct {
	cfg     config.DriveConfig
	open    Opener
	devices DeviceTable
	keys    KeyTableProvider
	logger  *zap.Logger
}

func NewProber(cfg config.DriveConfig, open Opener, keys KeyTableProvider, logger *zap.Logger) *Prober {
	return &Prober{
		cfg:     cfg,
		open:    open,
		devices: NewDeviceTable(cfg.Devices),
		keys:    keys,
		logger:  logger.Named("probe"),
	}
}

// Probe opens every source the drive mode uses. Nothing here is fatal; a source that cannot
// be opened is left out.
func (p *Prober) Probe() Sources {
	sources := Sources{}

	if p.cfg.Mode == config.DriveModeDualStick || p.cfg.Mode == config.DriveModeMixed {
		sources.Sticks = p.probeSticks()
	}

	if p.cfg.Mode == config.DriveModeGamepad || p.cfg.Mode == config.DriveModeMixed {
		sources.Gamepad = p.probeGamepad()
	}

	if p.cfg.Mode == config.DriveModeMixed {
		sources.Keys = p.probeKeys()
	}

	if sources.Count() == 0 {
		p.logger.Warn("no input sources available, robot will hold still", zap.String("mode", p.cfg.Mode))
	} else {
		p.logger.Info("input sources available", zap.String("mode", p.cfg.Mode), zap.Strings("sources", sources.Names()))
	}
	return sources
}

func (p *Prober) probeSticks() *Analog {
	left, err := openDevice(p.open, p.cfg.LeftStickID, p.logger)
	if err != nil {
		p.logger.Info("left joystick unavailable", zap.Int("id", p.cfg.LeftStickID), zap.Error(err))
		return nil
	}

	right, err := openDevice(p.open, p.cfg.RightStickID, p.logger)
	if err != nil {
		p.logger.Info("right joystick unavailable", zap.Int("id", p.cfg.RightStickID), zap.Error(err))
		left.close()
		return nil
	}

	leftProfile := p.devices.Resolve(left.name())
	rightProfile := p.devices.Resolve(right.name())
	p.logDevice("left joystick", leftProfile)
	p.logDevice("right joystick", rightProfile)

	return &Analog{
		Source: &DualStick{
			left:         left,
			right:        right,
			leftProfile:  leftProfile,
			rightProfile: rightProfile,
		},
		Left:  leftProfile.Polarity,
		Right: rightProfile.Polarity,
	}
}

func (p *Prober) probeGamepad() *Analog {
	gamepadID := p.cfg.GamepadIndex()
	dev, err := openDevice(p.open, gamepadID, p.logger)
	if err != nil {
		p.logger.Info("gamepad unavailable", zap.Int("id", gamepadID), zap.Error(err))
		return nil
	}

	profile := p.devices.Resolve(dev.name())
	p.logDevice("gamepad", profile)

	return NewAnalog(&Gamepad{
		dev:     dev,
		profile: profile,
	}, profile.Polarity)
}

func (p *Prober) probeKeys() *Keys {
	if p.keys == nil {
		p.logger.Info("keyboard relay unavailable: no relay")
		return nil
	}

	table := p.keys.Table()
	if table == nil {
		p.logger.Info("keyboard relay unavailable", zap.Error(nettable.ErrNotEstablished))
		return nil
	}
	return NewKeys(table)
}

func (p *Prober) logDevice(source string, profile DeviceProfile) {
	fields := []zap.Field{
		zap.String("source", source),
		zap.String("device", strings.TrimSpace(profile.Name)),
		zap.Stringer("polarity", profile.Polarity),
		zap.Int("left_axis", profile.LeftAxis),
		zap.Int("right_axis", profile.RightAxis),
	}
	if !profile.Known {
		p.logger.Warn("unrecognized device, assuming standard gamepad layout", fields...)
		return
	}
	p.logger.Info("device recognized", fields...)
}
