package parking

import (
	"sort"
	"time"
)

const historyLimit = 8

// Ledger keeps the active tickets under three keys (ticket id, plate,
// slot id) and a short history of closed tickets. The indices are only
// touched by Open and Close, which update all three together.
//
// Ledger is not safe for concurrent use; Service serializes access.
type Ledger struct {
	rates   RateCard
	byID    map[string]*Ticket
	byPlate map[string]*Ticket
	bySlot  map[string]*Ticket
	history []Ticket

	now   func() time.Time
	newID func() string
}

func NewLedger(rates RateCard) *Ledger {
	return &Ledger{
		rates:   rates,
		byID:    make(map[string]*Ticket),
		byPlate: make(map[string]*Ticket),
		bySlot:  make(map[string]*Ticket),
		now:     time.Now,
		newID:   newTicketID,
	}
}

// Open occupies the slot and issues a ticket for it.
func (l *Ledger) Open(slot *Slot, vehicle Vehicle) (*Ticket, error) {
	vehicle.Plate = normalizePlate(vehicle.Plate)
	if slot.IsOccupied() {
		return nil, ErrSlotOccupied
	}
	if _, ok := l.bySlot[slot.key()]; ok {
		return nil, ErrSlotOccupied
	}
	if _, ok := l.byPlate[vehicle.Plate]; ok {
		return nil, ErrVehicleParked
	}

	at := l.now()
	ticket := &Ticket{
		ID:      l.uniqueID(),
		SlotID:  slot.ID,
		Floor:   slot.Floor,
		Vehicle: vehicle,
		CheckIn: at,
		slot:    slot,
	}
	slot.occupy(vehicle, at)

	l.byID[ticket.ID] = ticket
	l.byPlate[vehicle.Plate] = ticket
	l.bySlot[slot.key()] = ticket
	return ticket, nil
}

// Close bills and closes an active ticket and frees its slot. Unknown ids
// leave the ledger untouched.
func (l *Ledger) Close(id string) (*Ticket, error) {
	key := ticketKey(id)
	ticket, ok := l.byID[key]
	if !ok {
		return nil, ErrTicketNotFound
	}
	delete(l.byID, key)

	at := l.now()
	ticket.CheckOut = at
	ticket.Amount = l.rates.Fee(billableHours(at.Sub(ticket.CheckIn)))

	delete(l.byPlate, ticket.Vehicle.Plate)
	delete(l.bySlot, ticket.slot.key())
	ticket.slot.release()

	l.history = append([]Ticket{*ticket}, l.history...)
	if len(l.history) > historyLimit {
		l.history = l.history[:historyLimit]
	}
	return ticket, nil
}

func (l *Ledger) FindByID(id string) (*Ticket, bool) {
	t, ok := l.byID[ticketKey(id)]
	return t, ok
}

func (l *Ledger) FindByPlate(plate string) (*Ticket, bool) {
	t, ok := l.byPlate[normalizePlate(plate)]
	return t, ok
}

func (l *Ledger) FindBySlot(slotID string) (*Ticket, bool) {
	t, ok := l.bySlot[slotKey(slotID)]
	return t, ok
}

// History returns closed tickets, most recent first.
func (l *Ledger) History() []Ticket {
	out := make([]Ticket, len(l.history))
	copy(out, l.history)
	return out
}

// Active returns copies of the open tickets ordered by check-in time.
func (l *Ledger) Active() []Ticket {
	out := make([]Ticket, 0, len(l.byID))
	for _, t := range l.byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l *Ledger) Len() int {
	return len(l.byID)
}

func (l *Ledger) uniqueID() string {
	for {
		id := ticketKey(l.newID())
		if _, taken := l.byID[id]; !taken && id != "" {
			return id
		}
	}
}
