package geo

import "math"

const (
	earthRadiusM = 6371000.0
	strideM      = 0.8
)

// HaversineM returns the great-circle distance in meters between two
// coordinates on a spherical Earth.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// EstimateSteps converts a distance segment into a step estimate assuming an
// average stride of 0.8 meters.
func EstimateSteps(distanceM float64) int {
	if distanceM <= 0 {
		return 0
	}
	return int(math.Floor(distanceM / strideM))
}
