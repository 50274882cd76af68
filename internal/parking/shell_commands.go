package parking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const shellTimeFormat = "02 Jan 15:04"

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.park_command")
	defer span.End()

	if len(parts) < 2 || len(parts) > 4 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: park <plate> [owner] [phone]\n")
		return
	}

	vehicle := vehicleFromArgs(parts[1:])
	span.SetAttributes(attribute.String("vehicle.plate", vehicle.Plate))

	ticket, err := s.service.AssignAutomatic(ctx, vehicle)
	if err != nil {
		span.AddEvent("parking_failed")
		s.printf("%s\n", describeError(err))
		return
	}

	span.AddEvent("parking_successful", trace.WithAttributes(
		attribute.String("allocated_slot", ticket.SlotID),
	))
	s.printTicketIssued(ticket)
}

func (s *Shell) handleParkAt(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.park_at_command")
	defer span.End()

	if len(parts) < 3 || len(parts) > 5 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: park_at <slot_id> <plate> [owner] [phone]\n")
		return
	}

	slotID := parts[1]
	vehicle := vehicleFromArgs(parts[2:])
	span.SetAttributes(
		attribute.String("slot.requested", slotID),
		attribute.String("vehicle.plate", vehicle.Plate),
	)

	ticket, err := s.service.AssignTo(ctx, slotID, vehicle)
	if err != nil {
		span.AddEvent("parking_failed")
		s.printf("%s\n", describeError(err))
		return
	}

	span.AddEvent("parking_successful")
	s.printTicketIssued(ticket)
}

func (s *Shell) handleLeave(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.leave_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: leave <ticket_id>\n")
		return
	}

	ticket, err := s.service.Close(ctx, parts[1])
	if err != nil {
		span.AddEvent("leave_failed")
		s.printf("%s\n", describeError(err))
		return
	}

	span.AddEvent("leave_successful")
	s.printf("Ticket %s closed. Slot %s is free\n", ticket.ID, ticket.SlotID)
	s.printf("Stay: %s  Amount due: %.2f\n", formatStay(ticket.Duration(ticket.CheckOut)), ticket.Amount)
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.find_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: find <plate>\n")
		return
	}

	ticket, ok := s.service.FindByPlate(ctx, parts[1])
	if !ok {
		span.AddEvent("vehicle_not_found")
		s.printf("Not found\n")
		return
	}
	s.printf("Ticket %s  Plate %s  Slot %s  Since %s\n",
		ticket.ID, ticket.Vehicle.Plate, ticket.SlotID, ticket.CheckIn.Format(shellTimeFormat))
}

func (s *Shell) handleFindSlot(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.find_slot_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: find_slot <slot_id>\n")
		return
	}

	ticket, ok := s.service.FindBySlot(ctx, parts[1])
	if !ok {
		span.AddEvent("slot_free_or_unknown")
		s.printf("No active ticket for slot %s\n", parts[1])
		return
	}
	s.printf("Ticket %s  Plate %s  Slot %s  Since %s\n",
		ticket.ID, ticket.Vehicle.Plate, ticket.SlotID, ticket.CheckIn.Format(shellTimeFormat))
}

func (s *Shell) handleStatus(ctx context.Context) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.status_command")
	defer span.End()

	occupancy := s.service.Occupancy(ctx)
	s.printf("%s\n", s.service.Name())
	s.printf("Available Slots: %d | Occupied: %d | Total: %d\n",
		occupancy.Available, occupancy.Occupied, occupancy.Total)

	if occupancy.Occupied == 0 {
		span.AddEvent("parking_lot_empty")
		return
	}

	s.printf("Slot\tFloor\tPlate\n")
	for _, slot := range s.service.Slots(ctx) {
		if slot.Occupied {
			s.printf("%s\t%d\t%s\n", slot.SlotID, slot.Floor, slot.Plate)
		}
	}
}

func (s *Shell) handleFloors(ctx context.Context) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.floors_command")
	defer span.End()

	for _, load := range s.service.FloorLoad(ctx) {
		s.printf("Floor %d: %d/%d occupied (%d free)\n",
			load.Floor, load.Occupied, load.Total, load.Total-load.Occupied)
	}
}

func (s *Shell) handleTickets(ctx context.Context) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.tickets_command")
	defer span.End()

	tickets := s.service.ActiveTickets(ctx)
	if len(tickets) == 0 {
		s.printf("No active tickets\n")
		return
	}
	for _, t := range tickets {
		s.printf("%s\t%s\t%s\t%s\n", t.ID, t.Vehicle.Plate, t.SlotID, t.CheckIn.Format(shellTimeFormat))
	}
}

func (s *Shell) handleHistory(ctx context.Context) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.history_command")
	defer span.End()

	history := s.service.RecentHistory(ctx)
	if len(history) == 0 {
		s.printf("No closed tickets yet\n")
		return
	}
	for _, t := range history {
		s.printf("%s\t%s\t%.2f\t(%s)\n", t.ID, t.Vehicle.Plate, t.Amount, t.SlotID)
	}
}

func (s *Shell) handleRevenue(ctx context.Context) {
	s.printf("Total revenue: %.2f\n", s.service.TotalRevenue(ctx))
}

func (s *Shell) handleEstimate(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.estimate_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: estimate <hours>\n")
		return
	}

	hours, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || hours <= 0 {
		span.RecordError(fmt.Errorf("invalid hours: %s", parts[1]))
		s.printf("Please enter a valid positive number of hours\n")
		return
	}

	amount := s.service.EstimateFee(ctx, hours)
	s.printf("Estimated fee for %g hour(s): %.2f (rounded up to the next hour)\n", hours, amount)
}

func (s *Shell) handleAddSlot(ctx context.Context, parts []string) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.add_slot_command")
	defer span.End()

	if len(parts) != 4 {
		span.AddEvent("invalid_arguments")
		s.printf("Usage: add_slot <slot_id> <floor> <distance>\n")
		return
	}

	floor, err := strconv.Atoi(parts[2])
	if err != nil || floor < 0 {
		s.printf("Invalid floor\n")
		return
	}
	distance, err := strconv.Atoi(parts[3])
	if err != nil || distance < 0 {
		s.printf("Invalid distance\n")
		return
	}

	slot, err := s.service.RegisterSlot(ctx, parts[1], floor, distance)
	if err != nil {
		span.AddEvent("register_failed")
		s.printf("%s\n", describeError(err))
		return
	}
	s.printf("Registered slot %s on floor %d\n", slot.SlotID, slot.Floor)
}

func (s *Shell) printTicketIssued(ticket Ticket) {
	s.printf("Ticket %s issued. Allocated slot: %s (floor %d)\n", ticket.ID, ticket.SlotID, ticket.Floor)
}

func vehicleFromArgs(args []string) Vehicle {
	var owner, phone string
	if len(args) > 1 {
		owner = args[1]
	}
	if len(args) > 2 {
		phone = args[2]
	}
	return NewVehicle(args[0], owner, phone)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, ErrLotFull):
		return "Sorry, parking lot is full"
	case errors.Is(err, ErrSlotNotFound):
		return "No such slot"
	case errors.Is(err, ErrSlotOccupied):
		return "Slot is already occupied"
	case errors.Is(err, ErrTicketNotFound):
		return "Ticket not found"
	case errors.Is(err, ErrDuplicateSlotID):
		return "A slot with that id already exists"
	case errors.Is(err, ErrInvalidSlotID):
		return "Slot id must not be blank"
	case errors.Is(err, ErrVehicleParked):
		return "Vehicle is already parked"
	default:
		return "Error: " + err.Error()
	}
}

func formatStay(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
