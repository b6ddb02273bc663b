package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightserv/facilityops/internal/model"
)

type workOrderFixture struct {
	orders   *fakeWorkOrderStore
	vendors  *fakeVendorStore
	activity *fakeActivityStore
	service  *WorkOrderService
}

func newWorkOrderFixture() *workOrderFixture {
	orders := newFakeWorkOrderStore()
	vendors := newFakeVendorStore()
	activity := &fakeActivityStore{}
	return &workOrderFixture{
		orders:   orders,
		vendors:  vendors,
		activity: activity,
		service:  NewWorkOrderService(orders, vendors, activity),
	}
}

var fsmPrincipal = model.Principal{UserID: uuid.New(), Name: "fsm", Role: model.RoleFSM}

func seedOrder(f *workOrderFixture, status model.WorkOrderStatus) model.WorkOrder {
	order := model.WorkOrder{
		ID:           uuid.New(),
		LeadID:       uuid.New(),
		Location:     "Main office",
		Zip:          "12203",
		ServiceType:  "Janitorial",
		ClientRate:   500,
		Status:       status,
		QRCodeSecret: "5f4dcc3b5aa765d61d8327deb882cf99",
		Tasks: []model.Task{
			{ID: "trash", Name: "Empty trash", Required: true},
			{ID: "vacuum", Name: "Vacuum floors", Required: true},
			{ID: "windows", Name: "Clean windows", Required: false},
		},
	}
	f.orders.orders[order.ID] = order
	return order
}

func TestWorkOrderService_AssignVendor(t *testing.T) {
	ctx := context.Background()

	t.Run("appends history and activates pending orders", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusPendingAssignment)
		vendor := model.Vendor{ID: uuid.New(), Name: "CleanCo"}
		f.vendors.vendors[vendor.ID] = vendor

		updated, err := f.service.AssignVendor(ctx, AssignVendorInput{
			WorkOrderID: order.ID,
			VendorID:    vendor.ID,
			VendorRate:  200,
			Principal:   fsmPrincipal,
		})
		require.NoError(t, err)

		assert.Equal(t, model.WorkOrderStatusActive, updated.Status)
		require.Len(t, updated.VendorHistory, 1)
		assert.Equal(t, vendor.ID, updated.VendorHistory[0].VendorID)
		assert.Equal(t, 200.0, updated.VendorHistory[0].VendorRate)
		assert.Equal(t, fsmPrincipal.UserID, updated.VendorHistory[0].AssignedBy)

		require.NotNil(t, updated.Margin())
		assert.Equal(t, 300.0, *updated.Margin())

		// Reassignment keeps history; the latest entry is current.
		other := model.Vendor{ID: uuid.New(), Name: "ShineBright"}
		f.vendors.vendors[other.ID] = other
		updated, err = f.service.AssignVendor(ctx, AssignVendorInput{
			WorkOrderID: order.ID,
			VendorID:    other.ID,
			VendorRate:  250,
			Principal:   fsmPrincipal,
		})
		require.NoError(t, err)
		require.Len(t, updated.VendorHistory, 2)
		assert.Equal(t, other.ID, updated.CurrentVendor().VendorID)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusPendingAssignment)
		_, err := f.service.AssignVendor(ctx, AssignVendorInput{
			WorkOrderID: order.ID,
			VendorID:    uuid.New(),
			VendorRate:  200,
			Principal:   fsmPrincipal,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("terminal order cannot be assigned", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusCompleted)
		vendor := model.Vendor{ID: uuid.New(), Name: "CleanCo"}
		f.vendors.vendors[vendor.ID] = vendor

		_, err := f.service.AssignVendor(ctx, AssignVendorInput{
			WorkOrderID: order.ID,
			VendorID:    vendor.ID,
			VendorRate:  200,
			Principal:   fsmPrincipal,
		})
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestWorkOrderService_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed transitions", func(t *testing.T) {
		cases := []struct {
			from model.WorkOrderStatus
			to   model.WorkOrderStatus
		}{
			{model.WorkOrderStatusActive, model.WorkOrderStatusPaused},
			{model.WorkOrderStatusPaused, model.WorkOrderStatusCompleted},
			{model.WorkOrderStatusActive, model.WorkOrderStatusCancelled},
			{model.WorkOrderStatusPendingAssignment, model.WorkOrderStatusCancelled},
		}
		for _, tc := range cases {
			f := newWorkOrderFixture()
			order := seedOrder(f, tc.from)
			updated, err := f.service.Transition(ctx, TransitionInput{
				WorkOrderID: order.ID,
				Target:      tc.to,
				Principal:   fsmPrincipal,
			})
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, updated.Status)
		}
	})

	t.Run("rejected transitions", func(t *testing.T) {
		cases := []struct {
			from model.WorkOrderStatus
			to   model.WorkOrderStatus
		}{
			{model.WorkOrderStatusCompleted, model.WorkOrderStatusActive},
			{model.WorkOrderStatusCancelled, model.WorkOrderStatusActive},
			{model.WorkOrderStatusPendingAssignment, model.WorkOrderStatusPaused},
		}
		for _, tc := range cases {
			f := newWorkOrderFixture()
			order := seedOrder(f, tc.from)
			_, err := f.service.Transition(ctx, TransitionInput{
				WorkOrderID: order.ID,
				Target:      tc.to,
				Principal:   fsmPrincipal,
			})
			assert.ErrorIs(t, err, ErrInvalidState, "%s -> %s", tc.from, tc.to)
		}
	})

	t.Run("paused order cannot resume without a vendor", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusPaused)
		_, err := f.service.Transition(ctx, TransitionInput{
			WorkOrderID: order.ID,
			Target:      model.WorkOrderStatusActive,
			Principal:   fsmPrincipal,
		})
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestWorkOrderService_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("records audit with matching qr", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusActive)

		checkIn, err := f.service.CheckIn(ctx, CheckInInput{
			WorkOrderID:      order.ID,
			ScannedCode:      order.QRCodeSecret,
			CompletedTaskIDs: []string{"trash", "vacuum"},
			Score:            4,
			Notes:            "windows skipped, rain",
			Principal:        fsmPrincipal,
		})
		require.NoError(t, err)

		assert.True(t, checkIn.QRValid)
		assert.Equal(t, 67, checkIn.CompletionRate)
		assert.Equal(t, 4, checkIn.Score)
		assert.Equal(t, fsmPrincipal.UserID, checkIn.ActorID)

		stored, err := f.service.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, stored.Tasks[0].Completed)
		assert.True(t, stored.Tasks[1].Completed)
		assert.False(t, stored.Tasks[2].Completed)

		checkIns, err := f.service.ListCheckIns(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, checkIns, 1)
	})

	t.Run("mismatched qr is recorded, not rejected", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusActive)

		checkIn, err := f.service.CheckIn(ctx, CheckInInput{
			WorkOrderID: order.ID,
			ScannedCode: "wrong-code",
			Score:       2,
			Principal:   fsmPrincipal,
		})
		require.NoError(t, err)
		assert.False(t, checkIn.QRValid)
		assert.Equal(t, 0, checkIn.CompletionRate)
	})

	t.Run("score bounds", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusActive)
		for _, score := range []int{0, 6, -1} {
			_, err := f.service.CheckIn(ctx, CheckInInput{
				WorkOrderID: order.ID,
				Score:       score,
				Principal:   fsmPrincipal,
			})
			assert.ErrorIs(t, err, ErrInvalidInput, "score %d", score)
		}
	})

	t.Run("requires fsm or admin", func(t *testing.T) {
		f := newWorkOrderFixture()
		order := seedOrder(f, model.WorkOrderStatusActive)
		_, err := f.service.CheckIn(ctx, CheckInInput{
			WorkOrderID: order.ID,
			Score:       3,
			Principal:   model.Principal{Role: model.RoleSales},
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestWorkOrderService_UpdateSchedule(t *testing.T) {
	ctx := context.Background()
	f := newWorkOrderFixture()
	order := seedOrder(f, model.WorkOrderStatusActive)

	schedule := model.Schedule{
		Frequency: model.FrequencyDaily,
		Days:      model.WeekdayMask{Mon: true, Wed: true, Fri: true},
		StartTime: "06:00",
	}
	updated, err := f.service.UpdateSchedule(ctx, UpdateScheduleInput{
		WorkOrderID: order.ID,
		Schedule:    schedule,
		Principal:   fsmPrincipal,
	})
	require.NoError(t, err)
	assert.Equal(t, schedule, updated.Schedule)

	done := seedOrder(f, model.WorkOrderStatusCancelled)
	_, err = f.service.UpdateSchedule(ctx, UpdateScheduleInput{
		WorkOrderID: done.ID,
		Schedule:    schedule,
		Principal:   fsmPrincipal,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestQRMatches(t *testing.T) {
	secret := "5f4dcc3b5aa765d61d8327deb882cf99"
	cases := []struct {
		scanned string
		want    bool
	}{
		{secret, true},
		{"", false},
		{"5f4dcc3b5aa765d61d8327deb882cf9", false},
		{secret + " ", false},
		{"5F4DCC3B5AA765D61D8327DEB882CF99", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QRMatches(tc.scanned, secret), "scanned %q", tc.scanned)
	}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		completed int
		total     int
		want      int
	}{
		{0, 0, 100},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
		{7, 8, 88},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompletionRate(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}

	// Rounded percentage stays in range for the full grid.
	for total := 1; total <= 50; total++ {
		for completed := 0; completed <= total; completed++ {
			rate := CompletionRate(completed, total)
			require.GreaterOrEqual(t, rate, 0, fmt.Sprintf("%d/%d", completed, total))
			require.LessOrEqual(t, rate, 100, fmt.Sprintf("%d/%d", completed, total))
		}
	}
}

func TestWorkOrderService_CreateVendor(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active vendor", func(t *testing.T) {
		f := newWorkOrderFixture()
		vendor, err := f.service.CreateVendor(ctx, CreateVendorInput{
			Name:        "  CleanCo  ",
			ContactName: "Dana Reyes",
			Email:       "dana@cleanco.example",
			ServiceArea: "Albany",
			Principal:   fsmPrincipal,
		})
		require.NoError(t, err)

		assert.Equal(t, "CleanCo", vendor.Name)
		assert.Equal(t, model.VendorStatusActive, vendor.Status)
		assert.NotEqual(t, uuid.Nil, vendor.ID)

		stored, err := f.vendors.Get(ctx, vendor.ID)
		require.NoError(t, err)
		assert.Equal(t, "Albany", stored.ServiceArea)
	})

	t.Run("requires a name", func(t *testing.T) {
		f := newWorkOrderFixture()
		_, err := f.service.CreateVendor(ctx, CreateVendorInput{Name: "   ", Principal: fsmPrincipal})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("sales cannot create vendors", func(t *testing.T) {
		f := newWorkOrderFixture()
		sales := model.Principal{UserID: uuid.New(), Role: model.RoleSales}
		_, err := f.service.CreateVendor(ctx, CreateVendorInput{Name: "CleanCo", Principal: sales})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}
