package parking

import (
	"strings"
	"time"
)

// Slot is one physical bay. Occupancy state only changes through occupy
// and release so the flag, the vehicle and the start time move together.
type Slot struct {
	ID       string
	Floor    int
	Distance int

	occupied bool
	vehicle  Vehicle
	since    time.Time
}

func NewSlot(id string, floor, distance int) *Slot {
	return &Slot{
		ID:       strings.TrimSpace(id),
		Floor:    floor,
		Distance: distance,
	}
}

func (s *Slot) IsOccupied() bool {
	return s.occupied
}

func (s *Slot) Vehicle() (Vehicle, bool) {
	return s.vehicle, s.occupied
}

func (s *Slot) OccupiedSince() (time.Time, bool) {
	return s.since, s.occupied
}

func (s *Slot) key() string {
	return slotKey(s.ID)
}

func (s *Slot) occupy(vehicle Vehicle, at time.Time) {
	s.occupied = true
	s.vehicle = vehicle
	s.since = at
}

func (s *Slot) release() Vehicle {
	vehicle := s.vehicle
	s.occupied = false
	s.vehicle = Vehicle{}
	s.since = time.Time{}
	return vehicle
}

// Status copies the slot into a value that is safe to hand out.
func (s *Slot) Status() SlotStatus {
	status := SlotStatus{
		SlotID:   s.ID,
		Floor:    s.Floor,
		Distance: s.Distance,
		Occupied: s.occupied,
	}
	if s.occupied {
		status.Plate = s.vehicle.Plate
		since := s.since
		status.Since = &since
	}
	return status
}

type SlotStatus struct {
	SlotID   string
	Floor    int
	Distance int
	Occupied bool
	Plate    string
	Since    *time.Time
}

// slotLess orders slots by floor, then distance to the gate, then ID.
func slotLess(a, b *Slot) bool {
	if a.Floor != b.Floor {
		return a.Floor < b.Floor
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

func slotKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
