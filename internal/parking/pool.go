package parking

import "container/heap"

// slotPool is a min-heap of free slots ordered by slotLess. It tracks each
// slot's heap position so a specific slot can be pulled out for manual
// assignment without a linear scan.
type slotPool struct {
	items []*Slot
	index map[string]int
}

func newSlotPool(slots []*Slot) *slotPool {
	p := &slotPool{
		items: make([]*Slot, 0, len(slots)),
		index: make(map[string]int, len(slots)),
	}
	for _, s := range slots {
		if s.IsOccupied() {
			continue
		}
		if _, dup := p.index[s.key()]; dup {
			continue
		}
		p.index[s.key()] = len(p.items)
		p.items = append(p.items, s)
	}
	heap.Init(p)
	return p
}

// TakeBest pops the nearest free slot.
func (p *slotPool) TakeBest() (*Slot, bool) {
	if len(p.items) == 0 {
		return nil, false
	}
	return heap.Pop(p).(*Slot), true
}

func (p *slotPool) Peek() (*Slot, bool) {
	if len(p.items) == 0 {
		return nil, false
	}
	return p.items[0], true
}

// Insert adds a slot; it reports false if the slot is already pooled.
func (p *slotPool) Insert(s *Slot) bool {
	if p.Contains(s) {
		return false
	}
	heap.Push(p, s)
	return true
}

// Remove drops a specific slot; it reports false if the slot is not pooled.
func (p *slotPool) Remove(s *Slot) bool {
	i, ok := p.index[s.key()]
	if !ok {
		return false
	}
	heap.Remove(p, i)
	return true
}

func (p *slotPool) Contains(s *Slot) bool {
	_, ok := p.index[s.key()]
	return ok
}

// heap.Interface

func (p *slotPool) Len() int { return len(p.items) }

func (p *slotPool) Less(i, j int) bool { return slotLess(p.items[i], p.items[j]) }

func (p *slotPool) Swap(i, j int) {
	p.items[i], p.items[j] = p.items[j], p.items[i]
	p.index[p.items[i].key()] = i
	p.index[p.items[j].key()] = j
}

func (p *slotPool) Push(x any) {
	s := x.(*Slot)
	p.index[s.key()] = len(p.items)
	p.items = append(p.items, s)
}

func (p *slotPool) Pop() any {
	n := len(p.items)
	s := p.items[n-1]
	p.items[n-1] = nil
	p.items = p.items[:n-1]
	delete(p.index, s.key())
	return s
}
