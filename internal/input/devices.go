package input

import (
	"strings"

	"github.com/Speshl/gorrc_tank/internal/config"
)

type Polarity int

const (
	// StandardPolarity devices report forward stick motion as negative.
	StandardPolarity Polarity = iota
	// InvertedPolarity devices already report forward as positive.
	InvertedPolarity
)

func (p Polarity) String() string {
	if p == InvertedPolarity {
		return "inverted"
	}
	return "standard"
}

// Forward turns a raw vertical axis reading into forward power.
func (p Polarity) Forward(raw float64) float64 {
	if p == InvertedPolarity {
		return raw
	}
	return -raw
}

// DeviceProfile is everything resolved from a device name at probe time. LeftAxis is also
// the primary vertical axis of a single-stick joystick.
type DeviceProfile struct {
	Name      string
	Polarity  Polarity
	LeftAxis  int
	RightAxis int
	Known     bool
}

// DefaultProfile is used for any device name missing from the table. It assumes a standard
// polarity gamepad with the Linux xpad axis layout.
var DefaultProfile = DeviceProfile{
	Polarity:  StandardPolarity,
	LeftAxis:  1,
	RightAxis: 4,
}

// DefaultDevices are the names reported by the Linux joystick driver for the controllers
// this robot has been driven with.
var DefaultDevices = []DeviceProfile{
	{Name: "Microsoft X-Box 360 pad", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "Microsoft X-Box One pad", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "Xbox Wireless Controller", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "Logitech Gamepad F310", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "Sony Interactive Entertainment Wireless Controller", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "8BitDo Pro 2", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 4},
	{Name: "Logitech Logitech Dual Action", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 3},
	{Name: "Logitech Logitech Extreme 3D", Polarity: StandardPolarity, LeftAxis: 1, RightAxis: 1},
}

// DeviceTable maps lower cased device names to profiles.
type DeviceTable map[string]DeviceProfile

// NewDeviceTable builds the table from the defaults, then config entries, which win on a
// name clash.
func NewDeviceTable(extra []config.DeviceConfig) DeviceTable {
	table := make(DeviceTable, len(DefaultDevices)+len(extra))
	for _, profile := range DefaultDevices {
		table.Add(profile)
	}

	for _, deviceCfg := range extra {
		polarity := StandardPolarity
		if deviceCfg.Inverted {
			polarity = InvertedPolarity
		}
		table.Add(DeviceProfile{
			Name:      deviceCfg.Name,
			Polarity:  polarity,
			LeftAxis:  deviceCfg.LeftAxis,
			RightAxis: deviceCfg.RightAxis,
		})
	}
	return table
}

func (t DeviceTable) Add(profile DeviceProfile) {
	profile.Known = true
	t[normalizeName(profile.Name)] = profile
}

// Resolve returns the profile for name, or DefaultProfile if the device is not recognized.
func (t DeviceTable) Resolve(name string) DeviceProfile {
	profile, ok := t[normalizeName(name)]
	if !ok {
		profile = DefaultProfile
		profile.Name = name
		return profile
	}
	return profile
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
