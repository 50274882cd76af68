package parking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const ticketIDLength = 8

// Ticket records one vehicle's stay in one slot. Amount is only
// meaningful once CheckOut is set.
type Ticket struct {
	ID       string
	SlotID   string
	Floor    int
	Vehicle  Vehicle
	CheckIn  time.Time
	CheckOut time.Time
	Amount   float64

	slot *Slot
}

func (t Ticket) Closed() bool {
	return !t.CheckOut.IsZero()
}

// Duration is the stay so far for an active ticket, or the billed stay
// for a closed one.
func (t Ticket) Duration(now time.Time) time.Duration {
	if t.Closed() {
		return t.CheckOut.Sub(t.CheckIn)
	}
	return now.Sub(t.CheckIn)
}

func newTicketID() string {
	return strings.ToUpper(uuid.NewString()[:ticketIDLength])
}

func ticketKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
