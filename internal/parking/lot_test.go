package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotAddRejectsDuplicateIgnoringCase(t *testing.T) {
	lot := NewLot("Downtown")

	assert.True(t, lot.Add(NewSlot("F0-S01", 0, 4)))
	assert.False(t, lot.Add(NewSlot("f0-s01", 1, 1)))
	assert.False(t, lot.Add(NewSlot(" F0-S01 ", 1, 1)))
	assert.False(t, lot.Add(NewSlot("   ", 0, 0)), "blank ids are rejected")
	assert.Equal(t, 1, lot.Total())
}

func TestLotFindIgnoresCase(t *testing.T) {
	lot := NewLot("Downtown")
	slot := NewSlot("F2-S07", 2, 128)
	require.True(t, lot.Add(slot))

	found, ok := lot.Find(" f2-s07")
	require.True(t, ok)
	assert.Same(t, slot, found)

	_, ok = lot.Find("F9-S99")
	assert.False(t, ok)
}

func TestLotCounts(t *testing.T) {
	lot := NewLot("Downtown")
	slots := []*Slot{NewSlot("A", 0, 1), NewSlot("B", 0, 2), NewSlot("C", 1, 1)}
	for _, s := range slots {
		require.True(t, lot.Add(s))
	}
	slots[1].occupy(NewVehicle("KA01", "", ""), newFakeClock().Now())

	assert.Equal(t, 3, lot.Total())
	assert.Equal(t, 1, lot.Occupied())
	assert.Equal(t, 2, lot.Available())
}

func TestLotSlotsKeepsRegistrationOrder(t *testing.T) {
	lot := NewLot("Downtown")
	for _, id := range []string{"Z", "A", "M"} {
		require.True(t, lot.Add(NewSlot(id, 0, 0)))
	}

	var ids []string
	for _, s := range lot.Slots() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"Z", "A", "M"}, ids)
}

func TestNewLotFromLayout(t *testing.T) {
	lot, err := NewLotFromLayout("Downtown Business District", Layout{
		Floors: 3, SlotsPerFloor: 12, FloorSpacing: 50, BaySpacing: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, "Downtown Business District", lot.Name())
	assert.Equal(t, 36, lot.Total())

	first, ok := lot.Find("F0-S01")
	require.True(t, ok)
	assert.Equal(t, 0, first.Floor)
	assert.Equal(t, 4, first.Distance)

	last, ok := lot.Find("F2-S12")
	require.True(t, ok)
	assert.Equal(t, 2, last.Floor)
	assert.Equal(t, 148, last.Distance)
}

func TestNewLotFromLayoutRejectsEmptyLayout(t *testing.T) {
	_, err := NewLotFromLayout("x", Layout{Floors: 0, SlotsPerFloor: 10})
	assert.Error(t, err)

	_, err = NewLotFromLayout("x", Layout{Floors: 1, SlotsPerFloor: 0})
	assert.Error(t, err)

	_, err = NewLotFromLayout("x", Layout{Floors: 1, SlotsPerFloor: 1, BaySpacing: -1})
	assert.Error(t, err)
}
