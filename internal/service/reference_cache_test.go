package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// countingGateway records how many calls reach the backing store.
type countingGateway struct {
	studentCalls  int
	teachesCalls  int
	hoursCalls    int
	categoryCalls int
	teaches       bool
}

func (g *countingGateway) StudentCourseID(context.Context, uint) (uint, error) {
	g.studentCalls++
	return 7, nil
}

func (g *countingGateway) InstructorTeachesCourse(context.Context, uint, uint) (bool, error) {
	g.teachesCalls++
	return g.teaches, nil
}

func (g *countingGateway) CategoryRequiredHours(context.Context, uint) (int, error) {
	g.hoursCalls++
	return 20, nil
}

func (g *countingGateway) CategoryCourseID(context.Context, uint) (uint, error) {
	g.categoryCalls++
	return 7, nil
}

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestCachedReferenceGatewayServesRepeatLookupsFromCache(t *testing.T) {
	inner := &countingGateway{teaches: true}
	gateway := NewCachedReferenceGateway(inner, newTestCache(t), time.Minute, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		courseID, err := gateway.StudentCourseID(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint(7), courseID)

		hours, err := gateway.CategoryRequiredHours(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, 20, hours)

		categoryCourse, err := gateway.CategoryCourseID(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, uint(7), categoryCourse)
	}

	require.Equal(t, 1, inner.studentCalls)
	require.Equal(t, 1, inner.hoursCalls)
	require.Equal(t, 1, inner.categoryCalls)
}

func TestCachedReferenceGatewayCachesOnlyPositiveMembership(t *testing.T) {
	inner := &countingGateway{teaches: false}
	gateway := NewCachedReferenceGateway(inner, newTestCache(t), time.Minute, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		teaches, err := gateway.InstructorTeachesCourse(ctx, 1, 7)
		require.NoError(t, err)
		require.False(t, teaches)
	}
	// Negative answers always re-check, so a fresh assignment is seen at once.
	require.Equal(t, 3, inner.teachesCalls)

	inner.teaches = true
	for i := 0; i < 3; i++ {
		teaches, err := gateway.InstructorTeachesCourse(ctx, 1, 7)
		require.NoError(t, err)
		require.True(t, teaches)
	}
	require.Equal(t, 4, inner.teachesCalls)
}

func TestCachedReferenceGatewayWithoutRedisFallsThrough(t *testing.T) {
	inner := &countingGateway{teaches: true}
	gateway := NewCachedReferenceGateway(inner, nil, time.Minute, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		courseID, err := gateway.StudentCourseID(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint(7), courseID)
	}

	require.Equal(t, 2, inner.studentCalls)
}
