package input

import (
	"errors"
	"sync"

	"github.com/simulatedsimian/joystick"
	"go.uber.org/zap"
)

// AxisScale is the magnitude the joystick driver reports at full deflection.
const AxisScale = 32767

var ErrNoDevice = errors.New("no input device")

type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// AnalogSource is a device with a vertical axis per drivetrain side.
type AnalogSource interface {
	IsConnected() bool
	VerticalAxis(side Side) float64
	Name() string
}

// Opener opens a joystick device by index. joystick.Open in production.
type Opener func(id int) (joystick.Joystick, error)

// device is one opened joystick. A read failure marks it disconnected for good; it is
// only brought back by the next probe.
type device struct {
	lock      sync.Mutex
	id        int
	js        joystick.Joystick
	connected bool
	logger    *zap.Logger
}

func openDevice(open Opener, id int, logger *zap.Logger) (*device, error) {
	js, err := open(id)
	if err != nil {
		return nil, errors.Join(ErrNoDevice, err)
	}
	if js == nil {
		return nil, ErrNoDevice
	}

	// a device that opens but cannot be read is as good as absent
	_, err = js.Read()
	if err != nil {
		js.Close()
		return nil, errors.Join(ErrNoDevice, err)
	}

	return &device{
		id:        id,
		js:        js,
		connected: true,
		logger:    logger.With(zap.Int("device_id", id), zap.String("device_name", js.Name())),
	}, nil
}

func (d *device) isConnected() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.connected
}

func (d *device) name() string {
	return d.js.Name()
}

// axis returns the raw value of one axis scaled to [-1,1]. A missing axis or a failed read
// gives 0.
func (d *device) axis(index int) float64 {
	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.connected {
		return 0
	}

	state, err := d.js.Read()
	if err != nil {
		d.logger.Warn("device read failed, marking disconnected", zap.Error(err))
		d.connected = false
		return 0
	}

	if index < 0 || index >= len(state.AxisData) {
		return 0
	}
	return AxisToFloat(state.AxisData[index])
}

func (d *device) close() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.connected = false
	d.js.Close()
}

func AxisToFloat(raw int) float64 {
	value := float64(raw) / AxisScale
	if value > 1 {
		return 1
	} else if value < -1 {
		return -1
	}
	return value
}

// Gamepad reads both vertical sticks from one device, using the axis indices of its profile.
type Gamepad struct {
	dev     *device
	profile DeviceProfile
}

func (g *Gamepad) IsConnected() bool {
	return g.dev.isConnected()
}

func (g *Gamepad) VerticalAxis(side Side) float64 {
	if side == SideRight {
		return g.dev.axis(g.profile.RightAxis)
	}
	return g.dev.axis(g.profile.LeftAxis)
}

func (g *Gamepad) Name() string {
	return g.dev.name()
}

func (g *Gamepad) Close() {
	g.dev.close()
}

// DualStick is two single-stick joysticks, one per side. Each stick drives its side with its
// primary vertical axis.
type DualStick struct {
	left         *device
	right        *device
	leftProfile  DeviceProfile
	rightProfile DeviceProfile
}

func (d *DualStick) IsConnected() bool {
	return d.left.isConnected() && d.right.isConnected()
}

func (d *DualStick) VerticalAxis(side Side) float64 {
	if side == SideRight {
		return d.right.axis(d.rightProfile.LeftAxis)
	}
	return d.left.axis(d.leftProfile.LeftAxis)
}

func (d *DualStick) Name() string {
	return d.left.name()
}

func (d *DualStick) Close() {
	d.left.close()
	d.right.close()
}
