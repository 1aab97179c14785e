package domain

import (
	"strings"
	"time"
)

// CabType represents the class of a cab.
type CabType string

const (
	CabTypeHatchback CabType = "HATCHBACK"
	CabTypeSedan     CabType = "SEDAN"
	CabTypeSUV       CabType = "SUV"
	CabTypeLuxury    CabType = "LUXURY"
)

// CabTypes returns every cab class.
func CabTypes() []CabType {
	return []CabType{CabTypeHatchback, CabTypeSedan, CabTypeSUV, CabTypeLuxury}
}

// ParseCabType parses a cab class case-insensitively.
func ParseCabType(s string) (CabType, bool) {
	t := CabType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range CabTypes() {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Cab represents a vehicle registered by a driver. A driver owns at most one cab.
type Cab struct {
	ID           string
	DriverID     string
	LicensePlate string
	Make         string
	Model        string
	Type         CabType
	Capacity     int
	Active       bool
	Location     Location
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
