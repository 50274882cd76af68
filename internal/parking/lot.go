package parking

import "fmt"

// Lot is the registry of every slot on a site, free or occupied. Slots are
// added once and never removed.
type Lot struct {
	name  string
	slots []*Slot
	byID  map[string]*Slot
}

func NewLot(name string) *Lot {
	return &Lot{
		name: name,
		byID: make(map[string]*Slot),
	}
}

func (l *Lot) Name() string {
	return l.name
}

// Add registers a slot. It reports false when the ID is already taken,
// ignoring case.
func (l *Lot) Add(slot *Slot) bool {
	key := slot.key()
	if key == "" {
		return false
	}
	if _, exists := l.byID[key]; exists {
		return false
	}
	l.byID[key] = slot
	l.slots = append(l.slots, slot)
	return true
}

func (l *Lot) Find(id string) (*Slot, bool) {
	slot, ok := l.byID[slotKey(id)]
	return slot, ok
}

// Slots returns every slot in registration order.
func (l *Lot) Slots() []*Slot {
	out := make([]*Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

func (l *Lot) Total() int {
	return len(l.slots)
}

func (l *Lot) Occupied() int {
	n := 0
	for _, slot := range l.slots {
		if slot.IsOccupied() {
			n++
		}
	}
	return n
}

func (l *Lot) Available() int {
	return l.Total() - l.Occupied()
}

// Layout describes a regular multi-floor site: bays are numbered from 1 on
// every floor and a bay's distance to the gate is
// floor*FloorSpacing + bay*BaySpacing.
type Layout struct {
	Floors        int
	SlotsPerFloor int
	FloorSpacing  int
	BaySpacing    int
}

// NewLotFromLayout builds a lot with slots named F{floor}-S{bay}.
func NewLotFromLayout(name string, layout Layout) (*Lot, error) {
	if layout.Floors <= 0 || layout.SlotsPerFloor <= 0 {
		return nil, fmt.Errorf("layout needs at least one floor and one slot per floor, got %d floors x %d slots",
			layout.Floors, layout.SlotsPerFloor)
	}
	if layout.FloorSpacing < 0 || layout.BaySpacing < 0 {
		return nil, fmt.Errorf("layout spacing must not be negative")
	}

	lot := NewLot(name)
	for floor := 0; floor < layout.Floors; floor++ {
		for bay := 1; bay <= layout.SlotsPerFloor; bay++ {
			id := fmt.Sprintf("F%d-S%02d", floor, bay)
			distance := floor*layout.FloorSpacing + bay*layout.BaySpacing
			lot.Add(NewSlot(id, floor, distance))
		}
	}
	return lot, nil
}
