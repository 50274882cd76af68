package parking

import (
	"sort"
	"sync"
	"time"
)

// Service is the allocation facade. Every mutating call (assign, close,
// register) runs as one unit under the write lock: pool selection, slot
// mutation and ledger insertion cannot interleave with another mutation,
// and readers never see a slot whose occupancy disagrees with the ledger.
type Service struct {
	mu      sync.RWMutex
	lot     *Lot
	pool    *slotPool
	ledger  *Ledger
	rates   RateCard
	revenue float64

	changes chan struct{}
}

type Option func(*Service)

// WithClock replaces time.Now for check-in and check-out stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.ledger.now = now
	}
}

// WithTicketIDs replaces the random ticket id generator.
func WithTicketIDs(next func() string) Option {
	return func(s *Service) {
		s.ledger.newID = next
	}
}

type Occupancy struct {
	Total     int
	Occupied  int
	Available int
}

type FloorLoad struct {
	Floor    int
	Occupied int
	Total    int
}

func NewService(lot *Lot, rates RateCard, opts ...Option) *Service {
	s := &Service{
		lot:     lot,
		pool:    newSlotPool(lot.Slots()),
		ledger:  NewLedger(rates),
		rates:   rates,
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignAutomatic parks the vehicle in the best free slot.
func (s *Service) AssignAutomatic(vehicle Vehicle) (Ticket, error) {
	vehicle.Plate = normalizePlate(vehicle.Plate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, parked := s.ledger.FindByPlate(vehicle.Plate); parked {
		return Ticket{}, ErrVehicleParked
	}

	slot, ok := s.pool.TakeBest()
	if !ok {
		return Ticket{}, ErrLotFull
	}
	// An occupied slot in the pool is stale. It is dropped here and goes
	// back in when its own ticket closes.
	if slot.IsOccupied() {
		return Ticket{}, ErrLotFull
	}
	ticket, err := s.ledger.Open(slot, vehicle)
	if err != nil {
		s.pool.Insert(slot)
		return Ticket{}, err
	}
	s.notify()
	return *ticket, nil
}

// AssignTo parks the vehicle in a specific slot.
func (s *Service) AssignTo(slotID string, vehicle Vehicle) (Ticket, error) {
	vehicle.Plate = normalizePlate(vehicle.Plate)

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.lot.Find(slotID)
	if !ok {
		return Ticket{}, ErrSlotNotFound
	}
	if slot.IsOccupied() {
		return Ticket{}, ErrSlotOccupied
	}
	if _, parked := s.ledger.FindByPlate(vehicle.Plate); parked {
		return Ticket{}, ErrVehicleParked
	}

	ticket, err := s.ledger.Open(slot, vehicle)
	if err != nil {
		return Ticket{}, err
	}
	s.pool.Remove(slot)
	s.notify()
	return *ticket, nil
}

// Close checks the ticket out, bills it and hands the slot back to the pool.
func (s *Service) Close(ticketID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.ledger.Close(ticketID)
	if err != nil {
		return Ticket{}, err
	}
	s.pool.Insert(ticket.slot)
	s.revenue += ticket.Amount
	s.notify()
	return *ticket, nil
}

// RegisterSlot adds a free slot at runtime. The service owns the slot it
// builds; callers only get its status back.
func (s *Service) RegisterSlot(id string, floor, distance int) (SlotStatus, error) {
	slot := NewSlot(id, floor, distance)
	if slot.ID == "" {
		return SlotStatus{}, ErrInvalidSlotID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lot.Add(slot) {
		return SlotStatus{}, ErrDuplicateSlotID
	}
	s.pool.Insert(slot)
	s.notify()
	return slot.Status(), nil
}

func (s *Service) FindByPlate(plate string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.ledger.FindByPlate(plate)
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

func (s *Service) FindBySlot(slotID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.ledger.FindBySlot(slotID)
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

func (s *Service) FindTicket(ticketID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.ledger.FindByID(ticketID)
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// FloorLoad reports occupancy per floor in ascending floor order.
func (s *Service) FloorLoad() []FloorLoad {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byFloor := make(map[int]*FloorLoad)
	for _, slot := range s.lot.Slots() {
		load, ok := byFloor[slot.Floor]
		if !ok {
			load = &FloorLoad{Floor: slot.Floor}
			byFloor[slot.Floor] = load
		}
		load.Total++
		if slot.IsOccupied() {
			load.Occupied++
		}
	}

	out := make([]FloorLoad, 0, len(byFloor))
	for _, load := range byFloor {
		out = append(out, *load)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Floor < out[j].Floor
	})
	return out
}

func (s *Service) EstimateFee(hours float64) float64 {
	return s.rates.Estimate(hours)
}

func (s *Service) RateCard() RateCard {
	return s.rates
}

func (s *Service) TotalRevenue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revenue
}

func (s *Service) ActiveTickets() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Active()
}

func (s *Service) RecentHistory() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.History()
}

// Slots returns the status of every slot in registration order.
func (s *Service) Slots() []SlotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := s.lot.Slots()
	out := make([]SlotStatus, len(slots))
	for i, slot := range slots {
		out[i] = slot.Status()
	}
	return out
}

func (s *Service) Occupancy() Occupancy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.lot.Total()
	occupied := s.lot.Occupied()
	return Occupancy{
		Total:     total,
		Occupied:  occupied,
		Available: total - occupied,
	}
}

func (s *Service) Name() string {
	return s.lot.Name()
}

// Changes delivers a signal after state changes. Signals coalesce: a
// slow reader sees one pending signal, not one per mutation.
func (s *Service) Changes() <-chan struct{} {
	return s.changes
}

func (s *Service) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
