package domain

import (
	"strings"
	"time"
)

// Vehicle is one indexed inventory document as returned by the search backend.
type Vehicle struct {
	Ref              string    `json:"ref"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	RegistrationDate time.Time `json:"registrationDate"`
	Price            float64   `json:"price"`
	Mileage          float64   `json:"mileage"`
	FuelType         string    `json:"fuelType"`
	EngineSize       float64   `json:"engineSize"`
	Transmission     string    `json:"transmission"`
	Location         string    `json:"location"`
	Features         []string  `json:"features"`
	Description      string    `json:"description"`

	ServiceHistory bool      `json:"serviceHistory"`
	MOTExpiry      time.Time `json:"motExpiry"`
	PreviousOwners int       `json:"previousOwners"`
	HasDamage      bool      `json:"hasDamage"`
	FeaturedDealer bool      `json:"featuredDealer"`
}

// Numeric returns a named numeric attribute. The age attribute is derived
// from the registration date relative to now.
func (v Vehicle) Numeric(name string, now time.Time) (float64, bool) {
	switch name {
	case "price":
		return v.Price, true
	case "mileage":
		return v.Mileage, true
	case "engineSize":
		return v.EngineSize, true
	case "previousOwners":
		return float64(v.PreviousOwners), true
	case "age":
		if v.RegistrationDate.IsZero() {
			return 0, false
		}
		return now.Sub(v.RegistrationDate).Hours() / (24 * 365.25), true
	default:
		return 0, false
	}
}

// Text returns a named string attribute.
func (v Vehicle) Text(name string) (string, bool) {
	switch name {
	case "make":
		return v.Make, true
	case "model":
		return v.Model, true
	case "fuelType":
		return v.FuelType, true
	case "transmission":
		return v.Transmission, true
	case "location":
		return v.Location, true
	case "serviceHistory":
		if v.ServiceHistory {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// HasFeature reports whether the vehicle lists the feature (case-insensitive).
func (v Vehicle) HasFeature(name string) bool {
	for _, f := range v.Features {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}
