package parking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newInstrumented(t *testing.T, clock *fakeClock) (*InstrumentedService, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	telemetry := NewTestTelemetryProvider(reader)
	t.Cleanup(func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			t.Errorf("Failed to shutdown telemetry: %v", err)
		}
	})

	is, err := NewInstrumentedService(newTestService(t, clock), telemetry)
	if err != nil {
		t.Fatalf("Failed to create instrumented service: %v", err)
	}
	return is, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("Expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInstrumentedServiceIntegration(t *testing.T) {
	clock := newFakeClock()
	is, reader := newInstrumented(t, clock)
	ctx := context.Background()

	ticket, err := is.AssignAutomatic(ctx, NewVehicle("KA01HH1234", "", ""))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ticket.SlotID != "F0-S01" {
		t.Errorf("Expected slot F0-S01, got %s", ticket.SlotID)
	}

	if _, err := is.AssignTo(ctx, "F0-S01", NewVehicle("KA02", "", "")); !errors.Is(err, ErrSlotOccupied) {
		t.Errorf("Expected ErrSlotOccupied, got %v", err)
	}

	found, ok := is.FindByPlate(ctx, "ka01hh1234")
	if !ok || found.ID != ticket.ID {
		t.Errorf("Expected to find ticket %s, got %+v", ticket.ID, found)
	}

	occupancy := is.Occupancy(ctx)
	if occupancy.Occupied != 1 || occupancy.Total != 36 {
		t.Errorf("Unexpected occupancy %+v", occupancy)
	}

	clock.Advance(90 * time.Minute)
	closed, err := is.Close(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if closed.Amount != 100 {
		t.Errorf("Expected amount 100, got %.2f", closed.Amount)
	}

	if _, err := is.Close(ctx, ticket.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}

	metrics := collect(t, reader)

	if got := sumInt(t, metrics["parking_operations_total"]); got != 2 {
		t.Errorf("Expected 2 assignment attempts, got %d", got)
	}
	if got := sumInt(t, metrics["leaving_operations_total"]); got != 2 {
		t.Errorf("Expected 2 check-out attempts, got %d", got)
	}
	if got := sumInt(t, metrics["parking_lot_occupancy"]); got != 0 {
		t.Errorf("Expected occupancy gauge 0, got %d", got)
	}
	if got := sumInt(t, metrics["parking_lot_total_slots"]); got != 36 {
		t.Errorf("Expected 36 total slots, got %d", got)
	}

	revenue, ok := metrics["parking_revenue_total"].(metricdata.Sum[float64])
	if !ok || len(revenue.DataPoints) != 1 || revenue.DataPoints[0].Value != 100 {
		t.Errorf("Unexpected revenue metric %+v", metrics["parking_revenue_total"])
	}

	available, ok := metrics["parking_lot_available_slots"].(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("Expected available slots gauge, got %T", metrics["parking_lot_available_slots"])
	}
	if len(available.DataPoints) != 3 {
		t.Errorf("Expected one data point per floor, got %d", len(available.DataPoints))
	}
	for _, dp := range available.DataPoints {
		if dp.Value != 12 {
			t.Errorf("Expected 12 free slots per floor, got %d", dp.Value)
		}
	}
}

func TestInstrumentedServiceRegisterSlot(t *testing.T) {
	is, reader := newInstrumented(t, newFakeClock())
	ctx := context.Background()

	if _, err := is.RegisterSlot(ctx, "F3-S01", 3, 154); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := is.RegisterSlot(ctx, "F3-S01", 3, 154); !errors.Is(err, ErrDuplicateSlotID) {
		t.Errorf("Expected ErrDuplicateSlotID, got %v", err)
	}
	if _, err := is.RegisterSlot(ctx, "  ", 3, 154); !errors.Is(err, ErrInvalidSlotID) {
		t.Errorf("Expected ErrInvalidSlotID, got %v", err)
	}

	if got := sumInt(t, collect(t, reader)["parking_lot_total_slots"]); got != 37 {
		t.Errorf("Expected 37 total slots, got %d", got)
	}
	if loads := is.FloorLoad(ctx); len(loads) != 4 {
		t.Errorf("Expected 4 floors, got %d", len(loads))
	}
}

func TestOutcomeLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{ErrLotFull, "lot_full"},
		{ErrSlotOccupied, "slot_occupied"},
		{ErrVehicleParked, "vehicle_parked"},
		{ErrInvalidSlotID, "invalid_slot"},
		{errors.New("boom"), "failed"},
		{fmt.Errorf("closing: %w", ErrTicketNotFound), "ticket_not_found"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
