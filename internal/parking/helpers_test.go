package parking

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("T%07d", n)
	}
}

func testRates(t *testing.T) RateCard {
	t.Helper()
	rates, err := NewRateCard(60, 40, 600)
	require.NoError(t, err)
	return rates
}

// newTestService builds a service over the default three-floor layout.
func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	lot, err := NewLotFromLayout("Test Site", Layout{Floors: 3, SlotsPerFloor: 12, FloorSpacing: 50, BaySpacing: 4})
	require.NoError(t, err)
	return NewService(lot, testRates(t), WithClock(clock.Now), WithTicketIDs(sequentialIDs()))
}

func newServiceWithSlots(t *testing.T, clock *fakeClock, slots ...*Slot) *Service {
	t.Helper()
	lot := NewLot("Test Site")
	for _, s := range slots {
		require.True(t, lot.Add(s))
	}
	return NewService(lot, testRates(t), WithClock(clock.Now), WithTicketIDs(sequentialIDs()))
}

// requireConsistent checks the cross-structure invariants of a service.
func requireConsistent(t *testing.T, s *Service) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, occupied := s.lot.Total(), s.lot.Occupied()
	require.Equal(t, total, occupied+s.lot.Available())
	require.Equal(t, occupied, s.ledger.Len(), "one active ticket per occupied slot")
	require.Equal(t, total-occupied, s.pool.Len(), "pool holds exactly the free slots")

	for _, slot := range s.lot.Slots() {
		ticket, hasTicket := s.ledger.bySlot[slot.key()]
		require.Equal(t, slot.IsOccupied(), hasTicket, "slot %s", slot.ID)
		require.Equal(t, !slot.IsOccupied(), s.pool.Contains(slot), "slot %s pooled", slot.ID)
		if hasTicket {
			require.Same(t, slot, ticket.slot)
			require.Same(t, ticket, s.ledger.byID[ticket.ID])
			require.Same(t, ticket, s.ledger.byPlate[ticket.Vehicle.Plate])
			v, _ := slot.Vehicle()
			require.True(t, v.Equal(ticket.Vehicle))
		}
	}
	require.Len(t, s.ledger.byPlate, s.ledger.Len())
	require.Len(t, s.ledger.bySlot, s.ledger.Len())
}
