package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedService wraps Service with spans and metrics. Collaborators
// (shell, HTTP handlers) talk to this type.
type InstrumentedService struct {
	*Service
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
	revenueCounter    metric.Float64Counter
	availableGauge    metric.Int64ObservableGauge
}

func NewInstrumentedService(service *Service, telemetry *TelemetryProvider) (*InstrumentedService, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of slot assignments attempted"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of ticket check-outs attempted"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenueCounter, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Fees collected on check-out"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	availableGauge, err := meter.Int64ObservableGauge("parking_lot_available_slots",
		metric.WithDescription("Free slots per floor"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for _, load := range service.FloorLoad() {
				o.Observe(int64(load.Total-load.Occupied),
					metric.WithAttributes(attribute.Int("floor", load.Floor)))
			}
			return nil
		}))
	if err != nil {
		return nil, err
	}

	is := &InstrumentedService{
		Service:           service,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
		revenueCounter:    revenueCounter,
		availableGauge:    availableGauge,
	}

	// Seed the gauges with the state the service was built with
	occupancy := service.Occupancy()
	totalSlotsGauge.Add(context.Background(), int64(occupancy.Total))
	occupancyGauge.Add(context.Background(), int64(occupancy.Occupied))

	return is, nil
}

func (is *InstrumentedService) AssignAutomatic(ctx context.Context, vehicle Vehicle) (Ticket, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.assign_automatic",
		trace.WithAttributes(attribute.String("vehicle.plate", vehicle.Plate)))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_best_slot")

	ticket, err := is.Service.AssignAutomatic(vehicle)
	is.recordAssignment(ctx, span, "assign_automatic", start, ticket, err)
	return ticket, err
}

func (is *InstrumentedService) AssignTo(ctx context.Context, slotID string, vehicle Vehicle) (Ticket, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.assign_to",
		trace.WithAttributes(
			attribute.String("vehicle.plate", vehicle.Plate),
			attribute.String("slot.requested", slotID),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("validating_requested_slot")

	ticket, err := is.Service.AssignTo(slotID, vehicle)
	is.recordAssignment(ctx, span, "assign_to", start, ticket, err)
	return ticket, err
}

func (is *InstrumentedService) recordAssignment(ctx context.Context, span trace.Span, operation string, start time.Time, ticket Ticket, err error) {
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", outcome(err)),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		labels = append(labels, attribute.Int("floor", ticket.Floor))
		span.SetAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.String("slot.id", ticket.SlotID),
			attribute.Int("slot.floor", ticket.Floor),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.String("slot_id", ticket.SlotID),
		))
		is.occupancyGauge.Add(ctx, 1)
	}

	is.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
}

func (is *InstrumentedService) Close(ctx context.Context, ticketID string) (Ticket, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.close",
		trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer span.End()

	start := time.Now()
	span.AddEvent("closing_ticket")

	ticket, err := is.Service.Close(ticketID)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "close"),
		attribute.String("status", outcome(err)),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		labels = append(labels, attribute.Int("floor", ticket.Floor))
		span.SetAttributes(
			attribute.String("vehicle.plate", ticket.Vehicle.Plate),
			attribute.String("slot.id", ticket.SlotID),
			attribute.Float64("ticket.amount", ticket.Amount),
			attribute.Int64("ticket.billed_hours", billableHours(ticket.Duration(ticket.CheckOut))),
		)
		span.AddEvent("slot_released")
		is.occupancyGauge.Add(ctx, -1)
		is.revenueCounter.Add(ctx, ticket.Amount, metric.WithAttributes(attribute.Int("floor", ticket.Floor)))
	}

	is.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (is *InstrumentedService) RegisterSlot(ctx context.Context, id string, floor, distance int) (SlotStatus, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.register_slot",
		trace.WithAttributes(
			attribute.String("slot.id", id),
			attribute.Int("slot.floor", floor),
			attribute.Int("slot.distance", distance),
		))
	defer span.End()

	start := time.Now()
	status, err := is.Service.RegisterSlot(id, floor, distance)

	labels := []attribute.KeyValue{
		attribute.String("operation", "register_slot"),
		attribute.String("status", outcome(err)),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.AddEvent("slot_registered")
		is.totalSlotsGauge.Add(ctx, 1)
	}

	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
	return status, err
}

func (is *InstrumentedService) FindByPlate(ctx context.Context, plate string) (Ticket, bool) {
	return is.lookup(ctx, "find_by_plate", attribute.String("vehicle.plate", plate), func() (Ticket, bool) {
		return is.Service.FindByPlate(plate)
	})
}

func (is *InstrumentedService) FindBySlot(ctx context.Context, slotID string) (Ticket, bool) {
	return is.lookup(ctx, "find_by_slot", attribute.String("slot.id", slotID), func() (Ticket, bool) {
		return is.Service.FindBySlot(slotID)
	})
}

func (is *InstrumentedService) FindTicket(ctx context.Context, ticketID string) (Ticket, bool) {
	return is.lookup(ctx, "find_ticket", attribute.String("ticket.id", ticketID), func() (Ticket, bool) {
		return is.Service.FindTicket(ticketID)
	})
}

func (is *InstrumentedService) lookup(ctx context.Context, operation string, key attribute.KeyValue, find func() (Ticket, bool)) (Ticket, bool) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot."+operation, trace.WithAttributes(key))
	defer span.End()

	start := time.Now()
	ticket, found := find()

	status := "found"
	if found {
		span.SetAttributes(attribute.String("ticket.id", ticket.ID))
		span.AddEvent("ticket_found")
	} else {
		status = "not_found"
		span.AddEvent("ticket_not_found")
	}

	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	return ticket, found
}

func (is *InstrumentedService) Slots(ctx context.Context) []SlotStatus {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.slots")
	defer span.End()

	start := time.Now()
	slots := is.Service.Slots()

	span.SetAttributes(attribute.Int("slots_count", len(slots)))
	is.recordRead(ctx, "slots", start)
	return slots
}

func (is *InstrumentedService) Occupancy(ctx context.Context) Occupancy {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.occupancy")
	defer span.End()

	start := time.Now()
	occupancy := is.Service.Occupancy()

	span.SetAttributes(
		attribute.Int("total_capacity", occupancy.Total),
		attribute.Int("occupied_slots_count", occupancy.Occupied),
	)
	is.recordRead(ctx, "occupancy", start)
	return occupancy
}

func (is *InstrumentedService) FloorLoad(ctx context.Context) []FloorLoad {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.floor_load")
	defer span.End()

	start := time.Now()
	load := is.Service.FloorLoad()

	span.SetAttributes(attribute.Int("floors", len(load)))
	is.recordRead(ctx, "floor_load", start)
	return load
}

func (is *InstrumentedService) ActiveTickets(ctx context.Context) []Ticket {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.active_tickets")
	defer span.End()

	start := time.Now()
	tickets := is.Service.ActiveTickets()

	span.SetAttributes(attribute.Int("active_tickets", len(tickets)))
	is.recordRead(ctx, "active_tickets", start)
	return tickets
}

func (is *InstrumentedService) RecentHistory(ctx context.Context) []Ticket {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.recent_history")
	defer span.End()

	start := time.Now()
	history := is.Service.RecentHistory()

	span.SetAttributes(attribute.Int("history_length", len(history)))
	is.recordRead(ctx, "recent_history", start)
	return history
}

func (is *InstrumentedService) TotalRevenue(ctx context.Context) float64 {
	_, span := is.telemetry.Tracer().Start(ctx, "parking_lot.total_revenue")
	defer span.End()

	revenue := is.Service.TotalRevenue()
	span.SetAttributes(attribute.Float64("revenue", revenue))
	return revenue
}

func (is *InstrumentedService) EstimateFee(ctx context.Context, hours float64) float64 {
	_, span := is.telemetry.Tracer().Start(ctx, "parking_lot.estimate_fee",
		trace.WithAttributes(attribute.Float64("hours", hours)))
	defer span.End()

	amount := is.Service.EstimateFee(hours)
	span.SetAttributes(attribute.Float64("amount", amount))
	return amount
}

func (is *InstrumentedService) recordRead(ctx context.Context, operation string, start time.Time) {
	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", "success"),
	))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrLotFull):
		return "lot_full"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrSlotOccupied):
		return "slot_occupied"
	case errors.Is(err, ErrTicketNotFound):
		return "ticket_not_found"
	case errors.Is(err, ErrDuplicateSlotID):
		return "duplicate_slot"
	case errors.Is(err, ErrInvalidSlotID):
		return "invalid_slot"
	case errors.Is(err, ErrVehicleParked):
		return "vehicle_parked"
	default:
		return "failed"
	}
}
