package models

// RateTable maps vehicle types to hourly rates. It is loaded from
// configuration and injected read-only into the fee calculator; the core
// never owns or mutates pricing state.
type RateTable struct {
	Hourly        map[VehicleType]float64
	DefaultHourly float64
}

// Rate returns the hourly rate for the given vehicle type, falling back to
// the configured default on a miss so an unknown type is never billed zero.
func (r RateTable) Rate(vehicleType VehicleType) float64 {
	if rate, ok := r.Hourly[vehicleType]; ok {
		return rate
	}
	return r.DefaultHourly
}
