package utils

import "github.com/paulmach/orb"

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidatePoint проверяет координаты точки orb
func ValidatePoint(p orb.Point) bool {
	return ValidateCoordinates(p.Lat(), p.Lon())
}
