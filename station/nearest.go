package station

import "math"

// earthRadiusMiles is the mean earth radius in statute miles.
const earthRadiusMiles = 3958.8

// degreesToRadians converts degrees to radians
func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Distance uses the Haversine formula to determine the great-circle distance
// between two points, in statute miles.
func Distance(pos1, pos2 Position) float64 {
	lat1 := degreesToRadians(pos1.Latitude)
	lon1 := degreesToRadians(pos1.Longitude)
	lat2 := degreesToRadians(pos2.Latitude)
	lon2 := degreesToRadians(pos2.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// Nearest returns the station in dir closest to pos. It returns false when
// dir is empty. When several stations are equally close the first one in
// directory order wins.
func Nearest(pos Position, dir *Directory) (Record, bool) {
	if dir.Len() == 0 {
		return Record{}, false
	}

	best := 0
	bestDistance := Distance(pos, dir.records[0].Location)
	for i := 1; i < len(dir.records); i++ {
		if d := Distance(pos, dir.records[i].Location); d < bestDistance {
			best, bestDistance = i, d
		}
	}

	return dir.records[best], true
}

// Nearest is shorthand for Nearest(pos, d).
func (d *Directory) Nearest(pos Position) (Record, bool) {
	return Nearest(pos, d)
}
