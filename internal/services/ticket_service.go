package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
)

// TicketService defines the read surface of the ticket ledger. Tickets are
// only ever written through OccupancyService.
type TicketService interface {
	// GetTicket returns the ticket. Fails with ErrTicketNotFound.
	GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	// ListTickets returns tickets matching the filter, newest first.
	ListTickets(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error)
}

// ticketService is the concrete implementation of TicketService.
type ticketService struct {
	tickets repository.TicketRepository
}

// NewTicketService creates a new instance of TicketService.
func NewTicketService(tickets repository.TicketRepository) TicketService {
	return &ticketService{
		tickets: tickets,
	}
}

// GetTicket returns the ticket, transforming the repository's nil result
// into a domain error.
func (s *ticketService) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter. The plate filter is
// normalized the same way Assign normalizes plates before storing them, so a
// lowercase query still matches.
func (s *ticketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	if filter.LicensePlate != nil {
		plate := strings.ToUpper(strings.TrimSpace(*filter.LicensePlate))
		filter.LicensePlate = &plate
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	return tickets, nil
}
