package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermanentNilPassesThrough(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("bad payload")

	assert.False(t, isPermanent(base))
	assert.True(t, isPermanent(Permanent(base)))
	assert.True(t, isPermanent(fmt.Errorf("handling report: %w", Permanent(base))))
}

func TestPermanentUnwraps(t *testing.T) {
	base := errors.New("rate limited")
	assert.ErrorIs(t, Permanent(base), base)
	assert.Equal(t, "rate limited", Permanent(base).Error())
}
