package parking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, clock *fakeClock) *Ledger {
	t.Helper()
	l := NewLedger(testRates(t))
	l.now = clock.Now
	l.newID = sequentialIDs()
	return l
}

func TestLedgerOpenIndexesTicket(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	slot := NewSlot("f0-s01", 0, 4)

	ticket, err := l.Open(slot, NewVehicle("ka01hh1234", "Asha", "1"))
	require.NoError(t, err)

	assert.Equal(t, "T0000001", ticket.ID)
	assert.Equal(t, clock.Now(), ticket.CheckIn)
	assert.False(t, ticket.Closed())
	assert.Zero(t, ticket.Amount)
	assert.True(t, slot.IsOccupied())

	byID, ok := l.FindByID("t0000001")
	require.True(t, ok)
	byPlate, ok := l.FindByPlate(" KA01hh1234 ")
	require.True(t, ok)
	bySlot, ok := l.FindBySlot("F0-S01")
	require.True(t, ok)

	assert.Same(t, ticket, byID)
	assert.Same(t, ticket, byPlate)
	assert.Same(t, ticket, bySlot)
}

func TestLedgerOpenGuards(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	first := NewSlot("A", 0, 1)
	second := NewSlot("B", 0, 2)

	_, err := l.Open(first, NewVehicle("KA01", "", ""))
	require.NoError(t, err)

	_, err = l.Open(first, NewVehicle("KA02", "", ""))
	assert.ErrorIs(t, err, ErrSlotOccupied)

	_, err = l.Open(second, NewVehicle("ka01", "", ""))
	assert.ErrorIs(t, err, ErrVehicleParked)
	assert.False(t, second.IsOccupied())
	assert.Equal(t, 1, l.Len())
}

func TestLedgerCloseBillsRoundedUpHours(t *testing.T) {
	tests := []struct {
		stay time.Duration
		want float64
	}{
		{5 * time.Minute, 60},
		{60 * time.Minute, 60},
		{61 * time.Minute, 100},
		{2*time.Hour + 30*time.Minute, 140},
		{30 * time.Hour, 600},
	}

	for _, tt := range tests {
		t.Run(tt.stay.String(), func(t *testing.T) {
			clock := newFakeClock()
			l := newTestLedger(t, clock)
			slot := NewSlot("A", 0, 1)

			ticket, err := l.Open(slot, NewVehicle("KA01", "", ""))
			require.NoError(t, err)

			clock.Advance(tt.stay)
			closed, err := l.Close(ticket.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.want, closed.Amount)
			assert.True(t, closed.Closed())
			assert.Equal(t, clock.Now(), closed.CheckOut)
			assert.Equal(t, tt.stay, closed.Duration(time.Time{}))
			assert.False(t, slot.IsOccupied())
		})
	}
}

func TestLedgerCloseRemovesFromAllIndices(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	slot := NewSlot("A", 0, 1)

	ticket, err := l.Open(slot, NewVehicle("KA01", "", ""))
	require.NoError(t, err)
	_, err = l.Close(ticket.ID)
	require.NoError(t, err)

	_, ok := l.FindByID(ticket.ID)
	assert.False(t, ok)
	_, ok = l.FindByPlate("KA01")
	assert.False(t, ok)
	_, ok = l.FindBySlot("A")
	assert.False(t, ok)
	assert.Zero(t, l.Len())
}

func TestLedgerCloseUnknownIsNoop(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	slot := NewSlot("A", 0, 1)
	ticket, err := l.Open(slot, NewVehicle("KA01", "", ""))
	require.NoError(t, err)

	_, err = l.Close("NOPE")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = l.Close(ticket.ID)
	require.NoError(t, err)
	_, err = l.Close(ticket.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound, "a ticket closes only once")

	assert.Len(t, l.History(), 1)
}

func TestLedgerHistoryIsBoundedAndMostRecentFirst(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	slot := NewSlot("A", 0, 1)

	var ids []string
	for i := 0; i < 9; i++ {
		ticket, err := l.Open(slot, NewVehicle(fmt.Sprintf("KA%02d", i), "", ""))
		require.NoError(t, err)
		clock.Advance(time.Minute)
		_, err = l.Close(ticket.ID)
		require.NoError(t, err)
		ids = append(ids, ticket.ID)
	}

	history := l.History()
	require.Len(t, history, historyLimit)
	for i, t2 := range history {
		assert.Equal(t, ids[len(ids)-1-i], t2.ID)
	}
	assert.NotEqual(t, ids[0], history[len(history)-1].ID, "oldest ticket was evicted")
}

func TestLedgerUniqueIDSkipsCollisions(t *testing.T) {
	clock := newFakeClock()
	l := newTestLedger(t, clock)
	ids := []string{"AAAA0001", "aaaa0001", "BBBB0002"}
	l.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := l.Open(NewSlot("A", 0, 1), NewVehicle("KA01", "", ""))
	require.NoError(t, err)
	second, err := l.Open(NewSlot("B", 0, 2), NewVehicle("KA02", "", ""))
	require.NoError(t, err)

	assert.Equal(t, "AAAA0001", first.ID)
	assert.Equal(t, "BBBB0002", second.ID)
}

func TestNewTicketIDShape(t *testing.T) {
	id := newTicketID()
	assert.Len(t, id, ticketIDLength)
	assert.Regexp(t, `^[0-9A-F]{8}$`, id)
}

func TestLedgerOpenNormalizesPlate(t *testing.T) {
	l := newTestLedger(t, newFakeClock())

	ticket, err := l.Open(NewSlot("A", 0, 1), Vehicle{Plate: " ka01ab ", Owner: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "KA01AB", ticket.Vehicle.Plate)

	_, ok := l.FindByPlate("KA01AB")
	assert.True(t, ok)
	_, err = l.Open(NewSlot("B", 0, 2), Vehicle{Plate: "KA01AB"})
	assert.ErrorIs(t, err, ErrVehicleParked)
}
