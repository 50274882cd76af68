package parking

import "errors"

// Expected outcomes of facade operations. None of them leave partial
// state behind.
var (
	ErrLotFull         = errors.New("parking lot is full")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotOccupied    = errors.New("slot is already occupied")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrDuplicateSlotID = errors.New("slot id already registered")
	ErrInvalidSlotID   = errors.New("slot id must not be blank")
	ErrVehicleParked   = errors.New("vehicle already has an active ticket")
	ErrInvalidRateCard = errors.New("invalid rate card")
)
