package domain

// Point is a geographic position in (longitude, latitude) coordinates, WGS84.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// ValidCoordinates reports whether lat/lon are inside the WGS84 envelope.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
