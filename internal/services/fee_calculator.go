package services

import (
	"math"
	"time"

	"github.com/odavaloshdz/estacionador/api/internal/models"
)

// ComputeDurationMinutes returns the stay length in whole minutes, rounded
// to the nearest minute and never negative.
func ComputeDurationMinutes(entryTime, exitTime time.Time) int {
	minutes := math.Round(exitTime.Sub(entryTime).Minutes())
	if minutes < 0 {
		return 0
	}
	return int(minutes)
}

// BilledHours converts a duration in minutes to billable hours. Partial
// hours are billed as a full hour (ceiling): the vehicle occupied the space
// for that hour, so the hour is charged.
func BilledHours(durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	return (durationMinutes + 59) / 60
}

// ComputeAmount maps a stay to a monetary amount: billed hours times the
// vehicle type's hourly rate, with the rate table's default applied on an
// unknown type. Pure function, no I/O; the rate table is injected so
// pricing never comes from global state.
func ComputeAmount(vehicleType models.VehicleType, entryTime, exitTime time.Time, rates models.RateTable) float64 {
	durationMinutes := ComputeDurationMinutes(entryTime, exitTime)
	hours := BilledHours(durationMinutes)

	amount := float64(hours) * rates.Rate(vehicleType)
	if amount < 0 {
		return 0
	}
	return amount
}
