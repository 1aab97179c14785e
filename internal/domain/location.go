package domain

// Location is a point on the map with an optional address label.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}
