package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported(Default))
	assert.True(t, Supported("nl-NL"))
	assert.False(t, Supported("de-DE"))
	assert.False(t, Supported(""))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Français (Canada)", Name("fr-CA"))
	assert.Equal(t, "xx-YY", Name("xx-YY"))
}
