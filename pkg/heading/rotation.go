package heading

import "math"

// Sensor frame axes for coordinate remapping. The minus variants carry the
// sign in the high bit so an axis and its negation share the low bits.
const (
	axisX      = 1
	axisY      = 2
	axisZ      = 3
	axisMinusX = axisX | 0x80
	axisMinusY = axisY | 0x80
	axisMinusZ = axisZ | 0x80
)

// displayAxes returns the axis pair the rotation matrix must be remapped
// onto for a given screen rotation, so azimuth extraction stays correct in
// non-default orientations.
func displayAxes(displayRotationDeg int) (int, int) {
	switch displayRotationDeg {
	case 90:
		return axisY, axisMinusX
	case 180:
		return axisMinusX, axisMinusY
	case 270:
		return axisMinusY, axisX
	default:
		return axisX, axisY
	}
}

// rotationMatrixFromVector converts a rotation-vector sample (unit
// quaternion x, y, z and optional w) into a 3x3 row-major rotation matrix.
func rotationMatrixFromVector(v []float64) [9]float64 {
	q1, q2, q3 := v[0], v[1], v[2]
	var q0 float64
	if len(v) >= 4 {
		q0 = v[3]
	} else {
		// w reconstructed from the unit-norm constraint.
		if s := 1 - q1*q1 - q2*q2 - q3*q3; s > 0 {
			q0 = math.Sqrt(s)
		}
	}

	sqQ1 := 2 * q1 * q1
	sqQ2 := 2 * q2 * q2
	sqQ3 := 2 * q3 * q3
	q1q2 := 2 * q1 * q2
	q3q0 := 2 * q3 * q0
	q1q3 := 2 * q1 * q3
	q2q0 := 2 * q2 * q0
	q2q3 := 2 * q2 * q3
	q1q0 := 2 * q1 * q0

	return [9]float64{
		1 - sqQ2 - sqQ3, q1q2 - q3q0, q1q3 + q2q0,
		q1q2 + q3q0, 1 - sqQ1 - sqQ3, q2q3 - q1q0,
		q1q3 - q2q0, q2q3 + q1q0, 1 - sqQ1 - sqQ2,
	}
}

// remapCoordinateSystem rewrites a rotation matrix so that the device axes
// given by newX/newY become the world-aligned reference axes. Returns false
// (and the input unchanged) for a degenerate axis pair.
func remapCoordinateSystem(in [9]float64, newX, newY int) ([9]float64, bool) {
	if newX&0x7C != 0 || newY&0x7C != 0 {
		return in, false
	}
	if newX&0x3 == 0 || newY&0x3 == 0 {
		return in, false
	}
	if newX&0x3 == newY&0x3 {
		return in, false
	}

	// The third axis follows from the first two; its sign flips if the
	// resulting triple is not a direct basis.
	newZ := newX ^ newY
	x := (newX & 0x3) - 1
	y := (newY & 0x3) - 1
	z := (newZ & 0x3) - 1

	if (x^((z+1)%3))|(y^((z+2)%3)) != 0 {
		newZ ^= 0x80
	}

	sx := newX >= 0x80
	sy := newY >= 0x80
	sz := newZ >= 0x80

	var out [9]float64
	for j := 0; j < 3; j++ {
		o := j * 3
		for i := 0; i < 3; i++ {
			switch i {
			case x:
				out[o+i] = signed(in[o+0], sx)
			case y:
				out[o+i] = signed(in[o+1], sy)
			case z:
				out[o+i] = signed(in[o+2], sz)
			}
		}
	}
	return out, true
}

func signed(v float64, negate bool) float64 {
	if negate {
		return -v
	}
	return v
}

// azimuthDegrees extracts the compass azimuth from a (remapped) rotation
// matrix, in [0, 360) clockwise from north.
func azimuthDegrees(m [9]float64) float64 {
	az := math.Atan2(m[1], m[4]) * 180 / math.Pi
	az = math.Mod(az+360, 360)
	return az
}
