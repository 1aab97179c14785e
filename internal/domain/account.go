package domain

import "time"

// Role tags an account with the part it plays in a booking.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// DriverProfile holds the driver-only part of an account.
type DriverProfile struct {
	LicenseNumber   string
	Rating          float64
	NumberOfRatings int
	Available       bool
	Location        Location
}

// ApplyRating folds a new rating into the running average.
func (p *DriverProfile) ApplyRating(rating int) {
	total := p.Rating*float64(p.NumberOfRatings) + float64(rating)
	p.NumberOfRatings++
	p.Rating = total / float64(p.NumberOfRatings)
}

// Account is a rider, driver or admin. Driver is set only for RoleDriver.
type Account struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      Role
	Driver    *DriverProfile
	CreatedAt time.Time
}

// IsDriver reports whether the account carries a driver profile.
func (a *Account) IsDriver() bool {
	return a.Role == RoleDriver && a.Driver != nil
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	if a.Driver != nil {
		d := *a.Driver
		c.Driver = &d
	}
	return &c
}
