// Package heading fuses platform orientation samples and position fixes
// into a single pointer rotation toward a geographic target.
//
// Below a speed threshold the pointer follows the magnetometer-derived
// azimuth with exponential smoothing. Above it, GPS course takes over and a
// short-lived extrapolation loop keeps the pointer moving between fixes.
package heading

import (
	"math"
	"sync"
	"time"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
)

// Regime is the active heading source.
type Regime int

const (
	RegimeIdle Regime = iota
	RegimeCompass
	RegimeDriving
)

func (r Regime) String() string {
	switch r {
	case RegimeCompass:
		return "compass"
	case RegimeDriving:
		return "driving"
	default:
		return "idle"
	}
}

// Accuracy is a coarse confidence level for the compass heading.
type Accuracy int

const (
	AccuracyUnknown Accuracy = iota
	AccuracyGood
	AccuracyFair
	AccuracyPoor
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyGood:
		return "good"
	case AccuracyFair:
		return "fair"
	case AccuracyPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// Magnetometer accuracy levels as reported by the sensor stack.
const (
	MagAccuracyUnknown    = -1
	MagAccuracyUnreliable = 0
	MagAccuracyLow        = 1
	MagAccuracyMedium     = 2
	MagAccuracyHigh       = 3
)

const (
	// SpeedThresholdMps separates the compass regime from the driving
	// regime.
	SpeedThresholdMps = 6.7

	// smoothingFactor is the fraction of the remaining angular error
	// applied per compass update.
	smoothingFactor = 0.15

	driveTickInterval      = 33 * time.Millisecond
	extrapolationCapMillis = 2000

	// Field strengths outside this band (in microtesla) indicate magnetic
	// interference near the sensor.
	magFieldMinMicrotesla = 20.0
	magFieldMaxMicrotesla = 75.0
)

// Fix is a position sample from the location source.
type Fix struct {
	Point      geo.Point
	SpeedMps   float64
	BearingDeg float64
	HasBearing bool
	TimeMillis int64
}

// OrientationSample is a raw sensor reading. RotationVector carries the
// unit quaternion (x, y, z, optional w, optional estimated accuracy in
// radians). MagneticField, when present, carries the field vector in
// microtesla.
type OrientationSample struct {
	RotationVector     []float64
	MagneticField      []float64
	MagAccuracy        int
	DisplayRotationDeg int
}

// Snapshot is the externally visible engine state.
type Snapshot struct {
	RotationDegrees float64
	Active          bool
	Regime          Regime
	Accuracy        Accuracy
	Interference    bool
}

// Engine accumulates sensor input and maintains the pointer rotation.
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	clock func() int64

	target     geo.Point
	haveTarget bool

	rotation float64
	regime   Regime

	lastFix *Fix

	azimuth     float64
	haveAzimuth bool

	accuracy     Accuracy
	interference bool

	closed     bool
	ticker     *time.Ticker
	tickerStop chan struct{}
}

// New returns an idle engine. clock reports the current time in Unix
// milliseconds; pass nil for the wall clock.
func New(clock func() int64) *Engine {
	if clock == nil {
		clock = func() int64 { return time.Now().UnixMilli() }
	}
	return &Engine{clock: clock}
}

// SetTarget points the engine at a destination. The next sensor or
// position update rotates the pointer toward it.
func (e *Engine) SetTarget(p geo.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.target = p
	e.haveTarget = true
}

// ClearTarget deactivates the pointer. The rotation accumulator is kept so
// a re-selected target animates from the previous angle instead of zero.
func (e *Engine) ClearTarget() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haveTarget = false
}

// OnFix feeds a position fix. A fast fix with a valid course switches the
// engine into the driving regime and starts the extrapolation loop; a slow
// one falls back to the compass regime and stops it. Fixes arriving after
// Close are ignored so the loop cannot restart on a torn-down engine.
func (e *Engine) OnFix(f Fix) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.lastFix = &f

	if f.SpeedMps > SpeedThresholdMps && f.HasBearing {
		e.regime = RegimeDriving
		e.updateRotationLocked(f.Point, f.BearingDeg, 1.0)
		e.startDriveLoopLocked()
		return
	}

	e.regime = RegimeCompass
	e.stopDriveLoopLocked()
	if e.haveAzimuth {
		e.updateRotationLocked(f.Point, e.azimuth, smoothingFactor)
	}
}

// OnOrientation feeds a sensor sample. Orientation input is ignored while
// driving; GPS course is authoritative at speed.
func (e *Engine) OnOrientation(s OrientationSample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var speed float64
	if e.lastFix != nil {
		speed = e.lastFix.SpeedMps
	}

	if len(s.MagneticField) >= 3 && speed <= SpeedThresholdMps {
		mag := math.Sqrt(s.MagneticField[0]*s.MagneticField[0] +
			s.MagneticField[1]*s.MagneticField[1] +
			s.MagneticField[2]*s.MagneticField[2])
		e.interference = mag < magFieldMinMicrotesla || mag > magFieldMaxMicrotesla
	}

	if len(s.RotationVector) < 3 {
		return
	}
	if speed > SpeedThresholdMps {
		return
	}

	m := rotationMatrixFromVector(s.RotationVector)
	ax, ay := displayAxes(s.DisplayRotationDeg)
	if remapped, ok := remapCoordinateSystem(m, ax, ay); ok {
		m = remapped
	}
	e.azimuth = azimuthDegrees(m)
	e.haveAzimuth = true
	e.accuracy = classifyAccuracy(s)

	if e.regime == RegimeIdle {
		e.regime = RegimeCompass
	}
	if e.lastFix != nil {
		e.updateRotationLocked(e.lastFix.Point, e.azimuth, smoothingFactor)
	}
}

// Snapshot returns the current pointer state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		RotationDegrees: e.rotation,
		Active:          e.haveTarget,
		Regime:          e.regime,
		Accuracy:        e.accuracy,
		Interference:    e.interference,
	}
}

// Close stops the extrapolation loop if it is running and ignores any
// further fixes.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopDriveLoopLocked()
}

// tick advances the pointer between fixes while driving, projecting the
// last position along its course. Fixes older than the extrapolation cap
// are left alone rather than projected into fiction.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.regime != RegimeDriving || e.lastFix == nil {
		return
	}
	f := e.lastFix
	if !f.HasBearing || f.SpeedMps <= SpeedThresholdMps {
		return
	}
	elapsed := e.clock() - f.TimeMillis
	if elapsed > extrapolationCapMillis {
		return
	}
	pos := geo.Project(f.Point, f.SpeedMps, f.BearingDeg, elapsed)
	e.updateRotationLocked(pos, f.BearingDeg, 1.0)
}

func (e *Engine) updateRotationLocked(pos geo.Point, headingDeg, factor float64) {
	if !e.haveTarget {
		return
	}
	bearing := geo.InitialBearingDegrees(pos, e.target)
	want := geo.NormalizeDegrees(bearing - headingDeg)
	diff := geo.NormalizeDelta(want - e.rotation)
	e.rotation += diff * factor
}

func (e *Engine) startDriveLoopLocked() {
	if e.ticker != nil {
		return
	}
	e.ticker = time.NewTicker(driveTickInterval)
	stop := make(chan struct{})
	e.tickerStop = stop
	tk := e.ticker
	go func() {
		for {
			select {
			case <-tk.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()
}

func (e *Engine) stopDriveLoopLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.tickerStop)
	e.ticker = nil
	e.tickerStop = nil
}

// classifyAccuracy prefers the rotation vector's own error estimate (fifth
// element, radians) and falls back to the magnetometer accuracy level.
func classifyAccuracy(s OrientationSample) Accuracy {
	if len(s.RotationVector) >= 5 && s.RotationVector[4] >= 0 {
		switch rad := s.RotationVector[4]; {
		case rad < 0.35:
			return AccuracyGood
		case rad < 0.8:
			return AccuracyFair
		default:
			return AccuracyPoor
		}
	}
	switch s.MagAccuracy {
	case MagAccuracyHigh:
		return AccuracyGood
	case MagAccuracyMedium:
		return AccuracyFair
	case MagAccuracyLow, MagAccuracyUnreliable:
		return AccuracyPoor
	default:
		return AccuracyUnknown
	}
}
