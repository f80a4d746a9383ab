// Package mixer turns per-source driver intent into left/right drivetrain power.
//
// Every value here lives for a single control tick. Nothing is clamped: contributions from
// several sources are summed as is and it is up to the actuator to realize the result.
package mixer

import "math"

const (
	MaxOutput = 1.0
	MinOutput = -1.0
)

// PowerPair is the commanded power for the left and right sides of the drivetrain.
type PowerPair struct {
	Left  float64
	Right float64
}

// Direction is the 2-D intent built from discrete keys. X is rotation, Y is speed.
type Direction struct {
	X float64
	Y float64
}

// KeyFlags are the eight relay keys. Arrow keys and WASD are redundant pairs.
type KeyFlags struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
	W     bool
	A     bool
	S     bool
	D     bool
}

func (p PowerPair) Add(other PowerPair) PowerPair {
	return PowerPair{
		Left:  p.Left + other.Left,
		Right: p.Right + other.Right,
	}
}

func (p PowerPair) IsZero() bool {
	return p.Left == 0 && p.Right == 0
}

// Overdrive reports whether either side is outside of unit range.
func (p PowerPair) Overdrive() bool {
	return p.Left > MaxOutput || p.Left < MinOutput || p.Right > MaxOutput || p.Right < MinOutput
}

func (d Direction) IsZero() bool {
	return d.X == 0 && d.Y == 0
}

// DirectionFromFlags reduces the keys to a vector. Each redundant pair is OR'd, so holding
// both up and w still counts once.
func DirectionFromFlags(flags KeyFlags) Direction {
	dir := Direction{}
	if flags.Up || flags.W {
		dir.Y += 1
	}
	if flags.Down || flags.S {
		dir.Y -= 1
	}
	if flags.Right || flags.D {
		dir.X += 1
	}
	if flags.Left || flags.A {
		dir.X -= 1
	}
	return dir
}

// ArcadeToTank mixes speed and rotation into side powers and scales them so the larger
// side sits at exactly ±1. The turn ratio is preserved.
func ArcadeToTank(speed, rotation float64) PowerPair {
	return Normalize(PowerPair{
		Left:  speed + rotation,
		Right: speed - rotation,
	})
}

// Normalize divides both sides by the larger magnitude. A zero pair stays zero.
func Normalize(p PowerPair) PowerPair {
	maxMagnitude := math.Max(math.Abs(p.Left), math.Abs(p.Right))
	if maxMagnitude == 0 {
		return PowerPair{}
	}
	return PowerPair{
		Left:  p.Left / maxMagnitude,
		Right: p.Right / maxMagnitude,
	}
}

// KeyboardPower is the keyboard contribution for one tick.
func KeyboardPower(flags KeyFlags) PowerPair {
	dir := DirectionFromFlags(flags)
	if dir.IsZero() {
		return PowerPair{}
	}
	return ArcadeToTank(dir.Y, dir.X)
}

// Sum adds every contribution. It does not clamp.
func Sum(contributions ...PowerPair) PowerPair {
	total := PowerPair{}
	for i := range contributions {
		total = total.Add(contributions[i])
	}
	return total
}
