package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusNext(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		wantNext Status
		wantOK   bool
	}{
		{"pending advances to accepted", StatusPending, StatusAccepted, true},
		{"accepted advances to shopping", StatusAccepted, StatusShopping, true},
		{"shopping advances to delivering", StatusShopping, StatusDelivering, true},
		{"delivering advances to completed", StatusDelivering, StatusCompleted, true},
		{"completed advances to paid", StatusCompleted, StatusPaid, true},
		{"paid is terminal", StatusPaid, "", false},
		{"unknown status has no successor", Status("bogus"), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := tc.status.Next()
			assert.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.wantNext, next)
			}
		})
	}
}

func TestStatusAtLeast(t *testing.T) {
	assert.True(t, StatusCompleted.AtLeast(StatusCompleted))
	assert.True(t, StatusPaid.AtLeast(StatusCompleted))
	assert.False(t, StatusDelivering.AtLeast(StatusCompleted))
	assert.False(t, StatusPending.AtLeast(StatusAccepted))
}

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Name: "Milk", Quantity: 2, Price: 3.5},
		{Name: "Bread", Quantity: 1, Price: 2},
	}
	assert.Equal(t, 9.0, ItemsTotal(items))
	assert.Equal(t, 0.0, ItemsTotal(nil))
	assert.Equal(t, 0.0, ItemsTotal([]OrderItem{}))
}

func TestAssignDisplayNumbers(t *testing.T) {
	now := time.Now()
	// Newest-first, as the list endpoints return them.
	orders := []Order{
		{ID: 30, CreatedAt: now},
		{ID: 20, CreatedAt: now.Add(-time.Hour)},
		{ID: 10, CreatedAt: now.Add(-2 * time.Hour)},
	}

	AssignDisplayNumbers(orders)

	assert.Equal(t, 3, orders[0].DisplayOrderNumber)
	assert.Equal(t, 2, orders[1].DisplayOrderNumber)
	assert.Equal(t, 1, orders[2].DisplayOrderNumber)
}
