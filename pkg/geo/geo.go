// Package geo provides the small set of great-circle calculations the
// compass needs: distance, initial bearing and forward projection
// (dead reckoning) between WGS84 coordinate pairs.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by all spherical formulas.
const EarthRadiusMeters = 6371000.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// InitialBearingDegrees returns the bearing in [0, 360) for an observer at
// from facing to, measured clockwise from true north. Returns 0 when the
// points coincide.
func InitialBearingDegrees(from, to Point) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeDegrees(math.Atan2(y, x) * 180 / math.Pi)
}

// Project forward-projects origin along a great circle at the given speed and
// bearing for elapsedMillis. A non-positive elapsed time or speed returns the
// origin unchanged.
func Project(origin Point, speedMps, bearingDeg float64, elapsedMillis int64) Point {
	if elapsedMillis <= 0 || speedMps <= 0 {
		return origin
	}
	dist := speedMps * float64(elapsedMillis) / 1000.0
	angular := dist / EarthRadiusMeters

	bearing := bearingDeg * math.Pi / 180
	lat := origin.Lat * math.Pi / 180
	lon := origin.Lon * math.Pi / 180

	newLat := math.Asin(math.Sin(lat)*math.Cos(angular) +
		math.Cos(lat)*math.Sin(angular)*math.Cos(bearing))
	newLon := lon + math.Atan2(math.Sin(bearing)*math.Sin(angular)*math.Cos(lat),
		math.Cos(angular)-math.Sin(lat)*math.Sin(newLat))

	return Point{Lat: newLat * 180 / math.Pi, Lon: newLon * 180 / math.Pi}
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// NormalizeDelta maps an angular difference into (-180, 180], so that
// following it always takes the shorter rotational path.
func NormalizeDelta(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
