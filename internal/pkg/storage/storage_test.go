package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	name, err := ObjectName("/bookings/u1/", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "bookings/u1/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	name, err = ObjectName("partners", "application/pdf; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	_, err = ObjectName("bookings", "application/x-msdownload")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/hf-media/bookings/a%20b/x.png",
		PublicURL("hf-media", "bookings/a b/x.png"))
}

func TestDisabledStore(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "x", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, Disabled{}.Delete(context.Background(), "x"))
}
