package validate

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhone(t *testing.T) {
	for _, ok := range []string{"9876543210", "6000000000"} {
		assert.True(t, Phone(ok), ok)
	}
	for _, bad := range []string{"5876543210", "987654321", "98765432101", "+919876543210", ""} {
		assert.False(t, Phone(bad), bad)
	}
}

func TestPincode(t *testing.T) {
	assert.True(t, Pincode("411001"))
	assert.False(t, Pincode("011001"))
	assert.False(t, Pincode("41100"))
}

func TestRegisterBindings(t *testing.T) {
	require.NoError(t, RegisterBindings())

	type form struct {
		Phone   string `binding:"required,mobile"`
		Pincode string `binding:"omitempty,pincode"`
	}
	assert.NoError(t, binding.Validator.ValidateStruct(form{Phone: "9876543210", Pincode: "411001"}))
	assert.NoError(t, binding.Validator.ValidateStruct(form{Phone: "9876543210"}))
	assert.Error(t, binding.Validator.ValidateStruct(form{Phone: "12345"}))
	assert.Error(t, binding.Validator.ValidateStruct(form{Phone: "9876543210", Pincode: "000000"}))
}
