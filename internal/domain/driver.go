package domain

import "time"

// DriverAvailability is the registry view of a driver used for matching.
type DriverAvailability struct {
	DriverID     string
	Available    bool
	Location     Location
	CabID        string
	CabType      CabType
	CabActive    bool
	RegisteredAt time.Time
}

// Matchable reports whether the driver can take a ride of the given class:
// free, with an active cab of that class.
func (d DriverAvailability) Matchable(cabType CabType) bool {
	return d.Available && d.CabID != "" && d.CabActive && d.CabType == cabType
}
