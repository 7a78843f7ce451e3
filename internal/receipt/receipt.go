// Package receipt renders human-readable entry/exit slips for tickets.
// It is the printing collaborator of the occupancy flow: the API hands it a
// ticket after an assign or release has committed and returns the slip as
// plain text for the operator's printer.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/odavaloshdz/estacionador/api/internal/models"
)

const (
	slipWidth  = 40
	timeLayout = "2006-01-02 15:04"
)

// Render returns a plain-text slip for the ticket: an entry slip while the
// ticket is active, an exit slip with duration and amount once closed.
func Render(ticket *models.Ticket, lotName string) string {
	var b strings.Builder

	divider := strings.Repeat("=", slipWidth) + "\n"
	thin := strings.Repeat("-", slipWidth) + "\n"

	b.WriteString(divider)
	b.WriteString(center(lotName) + "\n")
	if ticket.Status == models.TicketStatusActive {
		b.WriteString(center("ENTRY TICKET") + "\n")
	} else {
		b.WriteString(center("EXIT RECEIPT") + "\n")
	}
	b.WriteString(divider)

	line(&b, "Ticket", ticket.TicketNumber)
	line(&b, "Plate", ticket.LicensePlate)
	line(&b, "Vehicle", string(ticket.VehicleType))
	if ticket.VehicleColor != nil {
		line(&b, "Color", *ticket.VehicleColor)
	}
	if ticket.VehicleModel != nil {
		line(&b, "Model", *ticket.VehicleModel)
	}

	b.WriteString(thin)
	line(&b, "Entry", ticket.EntryTime.Local().Format(timeLayout))

	if ticket.Status != models.TicketStatusActive && ticket.ExitTime != nil {
		line(&b, "Exit", ticket.ExitTime.Local().Format(timeLayout))
		if ticket.DurationMinutes != nil {
			line(&b, "Duration", formatDuration(*ticket.DurationMinutes))
		}
		b.WriteString(thin)
		if ticket.Amount != nil {
			line(&b, "TOTAL", fmt.Sprintf("$%.2f", *ticket.Amount))
		}
	}

	b.WriteString(divider)
	b.WriteString(center("Thank you for your visit") + "\n")
	b.WriteString(divider)

	return b.String()
}

func line(b *strings.Builder, label, value string) {
	padding := slipWidth - len(label) - len(value)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(label + strings.Repeat(" ", padding) + value + "\n")
}

func center(s string) string {
	if len(s) >= slipWidth {
		return s
	}
	left := (slipWidth - len(s)) / 2
	return strings.Repeat(" ", left) + s
}

func formatDuration(minutes int) string {
	d := time.Duration(minutes) * time.Minute
	hours := int(d.Hours())
	mins := minutes - hours*60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
