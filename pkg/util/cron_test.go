package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCronTime(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	// Every 15 minutes
	next, err := NextCronTime("*/15 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 45, 0, 0, time.UTC), next)

	// Daily at midnight
	next, err = NextCronTime("0 0 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), next)
}

func TestNextCronTime_Invalid(t *testing.T) {
	_, err := NextCronTime("every five minutes", time.Now())
	assert.Error(t, err)

	// Six fields (with seconds) are not accepted
	_, err = NextCronTime("0 */5 * * * *", time.Now())
	assert.Error(t, err)
}
