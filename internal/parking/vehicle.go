package parking

import "strings"

// Vehicle is identified by its plate alone.
type Vehicle struct {
	Plate string
	Owner string
	Phone string
}

func NewVehicle(plate, owner, phone string) Vehicle {
	return Vehicle{
		Plate: normalizePlate(plate),
		Owner: strings.TrimSpace(owner),
		Phone: strings.TrimSpace(phone),
	}
}

func (v Vehicle) Equal(other Vehicle) bool {
	return v.Plate == other.Plate
}

func (v Vehicle) String() string {
	if v.Owner == "" {
		return v.Plate
	}
	return v.Plate + " (" + v.Owner + ")"
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
