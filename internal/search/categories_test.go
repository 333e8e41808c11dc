package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptsFor_Default(t *testing.T) {
	attempts := AttemptsFor(nil)
	require.Len(t, attempts, 1)
	assert.Equal(t, "catering.restaurant", attempts[0].Category)
	assert.True(t, attempts[0].EnforceRequired)
	assert.False(t, attempts[0].Relaxed())

	assert.Equal(t, attempts, AttemptsFor([]string{"thai"}))
}

func TestAttemptsFor_Pizza(t *testing.T) {
	attempts := AttemptsFor([]string{"Pizza"})
	require.Len(t, attempts, 3)

	assert.Equal(t, "catering.pizza", attempts[0].Category)
	assert.True(t, attempts[0].EnforceRequired)
	assert.False(t, attempts[0].Relaxed())

	assert.Equal(t, "catering.italian", attempts[1].Category)
	assert.True(t, attempts[1].Relaxed())
	assert.Equal(t, "category_relaxed:pizza->italian", attempts[1].Violation)

	assert.Equal(t, "catering.restaurant", attempts[2].Category)
	assert.True(t, attempts[2].Relaxed())
}

func TestAttemptsFor_Hotpot(t *testing.T) {
	attempts := AttemptsFor([]string{"hot pot"})
	require.Len(t, attempts, 2)
	assert.Equal(t, "catering.restaurant.asian", attempts[0].Category)
	assert.Equal(t, "catering.restaurant", attempts[1].Category)
	assert.True(t, attempts[1].Relaxed())
}

func TestAttemptsFor_SpicyCluster(t *testing.T) {
	for _, req := range []string{"sichuan", "Szechuan food", "spicy"} {
		attempts := AttemptsFor([]string{req})
		require.Len(t, attempts, 3, req)
		assert.Equal(t, "catering.restaurant.chinese", attempts[0].Category, req)
		assert.Equal(t, "catering.restaurant.asian", attempts[1].Category, req)
		assert.Equal(t, "catering.restaurant", attempts[2].Category, req)
	}
}
