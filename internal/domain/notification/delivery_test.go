package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelivery_String(t *testing.T) {
	assert.Equal(t, "none", Delivery{}.String())
	assert.Equal(t, "native", Delivery{Native: true}.String())
	assert.Equal(t, "toast", Delivery{Toast: true}.String())
	assert.Equal(t, "native+toast", Delivery{Native: true, Toast: true}.String())

	assert.False(t, Delivery{}.Delivered())
	assert.True(t, Delivery{Toast: true}.Delivered())
}
