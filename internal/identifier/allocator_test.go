package identifier

import (
	"context"
	"errors"
	"strconv"
	"testing"

	apperrors "tableline/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryIndex stands in for the (restaurant, number) lookup.
type memoryIndex map[uuid.UUID]map[string]bool

func (m memoryIndex) exists(_ context.Context, restaurantID uuid.UUID, number string) (bool, error) {
	return m[restaurantID][number], nil
}

func (m memoryIndex) add(restaurantID uuid.UUID, number string) {
	if m[restaurantID] == nil {
		m[restaurantID] = map[string]bool{}
	}
	m[restaurantID][number] = true
}

func TestAllocate_ReturnsFourDigitNumber(t *testing.T) {
	alloc := New()
	index := memoryIndex{}

	number, err := alloc.Allocate(context.Background(), uuid.New(), index.exists)
	require.NoError(t, err)
	require.Len(t, number, 4)

	n, err := strconv.Atoi(number)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1000)
	assert.LessOrEqual(t, n, 9999)
}

func TestAllocate_NeverReturnsTakenNumber(t *testing.T) {
	// A deterministic source that walks every value lets a single tenant
	// fill all 9000 slots and proves no duplicate is ever handed out.
	next := 0
	alloc := New(
		WithMaxAttempts(9000),
		WithRand(func(n int) int {
			v := next % n
			next++
			return v
		}),
	)
	restaurant := uuid.New()
	index := memoryIndex{}

	for i := 0; i < 9000; i++ {
		number, err := alloc.Allocate(context.Background(), restaurant, index.exists)
		require.NoError(t, err)
		require.False(t, index[restaurant][number], "duplicate %s", number)
		index.add(restaurant, number)
	}

	_, err := alloc.Allocate(context.Background(), restaurant, index.exists)
	assert.True(t, apperrors.Is(err, apperrors.ErrExhaustedRetries))
}

func TestAllocate_UniquenessIsPerRestaurant(t *testing.T) {
	alloc := New(WithRand(func(int) int { return 0 }))
	a, b := uuid.New(), uuid.New()
	index := memoryIndex{}
	index.add(a, "1000")

	number, err := alloc.Allocate(context.Background(), b, index.exists)
	require.NoError(t, err)
	assert.Equal(t, "1000", number)
}

func TestAllocate_ExhaustedAfterMaxAttempts(t *testing.T) {
	calls := 0
	alwaysTaken := func(context.Context, uuid.UUID, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := New().Allocate(context.Background(), uuid.New(), alwaysTaken)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrExhaustedRetries))
	assert.Equal(t, "could not generate unique ID", err.Error())
	assert.Equal(t, MaxAttempts, calls)
}

func TestAllocate_LookupErrorStops(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	failing := func(context.Context, uuid.UUID, string) (bool, error) {
		calls++
		return false, boom
	}

	_, err := New().Allocate(context.Background(), uuid.New(), failing)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAllocate_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Allocate(ctx, uuid.New(), memoryIndex{}.exists)
	assert.ErrorIs(t, err, context.Canceled)
}
