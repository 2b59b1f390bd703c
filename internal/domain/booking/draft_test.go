package booking

import (
	"encoding/json"
	"testing"
	"time"

	"hellofixo-service/internal/domain/location"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func filledDraft() *Draft {
	return &Draft{
		ProblemIDs:    []int64{1},
		Location:      location.Location{Pincode: "411001", IsServiceable: true},
		Contact:       Contact{Name: "Asha", Phone: "9876543210"},
		Address:       Address{Line1: "12 MG Road", Pincode: "411001"},
		ScheduledDate: "2026-03-11",
		TimeSlot:      "11:00-13:00",
		PaymentMethod: PaymentCash,
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusPending, NormalizeStatus("  Pending "))
	assert.True(t, Status("QUOTATION_SHARED").Is(StatusQuotationShared))
	assert.False(t, Status("on_hold").IsKnown())
	assert.Equal(t, Status("on_hold"), NormalizeStatus("On_Hold"))
	assert.True(t, Status("Confirmed").Cancellable())
	assert.False(t, StatusAssigned.Cancellable())
}

func TestToggleProblemIsIdempotentPerID(t *testing.T) {
	d := &Draft{}
	d.ToggleProblem(3)
	d.ToggleProblem(5)
	assert.Equal(t, []int64{3, 5}, d.ProblemIDs)

	d.ToggleProblem(3)
	assert.Equal(t, []int64{5}, d.ProblemIDs)
	assert.False(t, d.HasProblem(3))

	d.ToggleProblem(3)
	assert.Equal(t, []int64{5, 3}, d.ProblemIDs)
}

func TestNextRejectsMissingContact(t *testing.T) {
	d := filledDraft()
	d.Contact.Phone = "12345"

	err := d.Next(testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contact.phone", verr.Field)
	assert.Equal(t, StepContact, d.Step)
}

func TestStepsAdvanceAndRetreat(t *testing.T) {
	d := filledDraft()
	for want := StepAddress; want <= StepPayment; want++ {
		require.NoError(t, d.Next(testNow))
		assert.Equal(t, want, d.Step)
	}
	assert.Error(t, d.Next(testNow))

	for i := 0; i < 10; i++ {
		d.Back(testNow)
	}
	assert.Equal(t, StepContact, d.Step)
}

func TestAddressPincodeMustMatchLocation(t *testing.T) {
	d := filledDraft()
	d.Step = StepAddress
	d.Address.Pincode = "560001"
	assert.ErrorIs(t, d.Next(testNow), xerrors.ErrInvalidInput)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("2026-03-10", "09:00-11:00", testNow))
	assert.Error(t, ValidateSchedule("2026-03-09", "09:00-11:00", testNow))
	assert.Error(t, ValidateSchedule("10/03/2026", "09:00-11:00", testNow))
	assert.Error(t, ValidateSchedule("2026-03-12", "08:00-09:00", testNow))
}

func TestTouchLockedDraft(t *testing.T) {
	d := filledDraft()
	d.State = FormError
	require.NoError(t, d.Touch(testNow))
	assert.Equal(t, FormFilling, d.State)

	d.State = FormSuccess
	assert.ErrorIs(t, d.Touch(testNow), xerrors.ErrConflict)
}

func TestStepJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Step Step `json:"step"`
	}{StepSchedule})
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"schedule"}`, string(b))

	var out struct {
		Step Step `json:"step"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"step":"photo"}`), &out))
	assert.Equal(t, StepPhoto, out.Step)
}
