package heading

// Bridges for the external test package.

var (
	RotationMatrixFromVector = rotationMatrixFromVector
	RemapCoordinateSystem    = remapCoordinateSystem
	AzimuthDegrees           = azimuthDegrees
	DisplayAxes              = displayAxes
	ClassifyAccuracy         = classifyAccuracy
)

const (
	AxisX      = axisX
	AxisMinusX = axisMinusX
)

// Tick runs one extrapolation step without waiting for the ticker.
func (e *Engine) Tick() {
	e.tick()
}

// DriveLoopRunning reports whether the extrapolation ticker is live.
func (e *Engine) DriveLoopRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticker != nil
}
