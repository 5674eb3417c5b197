package mocks

import (
	"context"

	"github.com/dtroode/blogauth-server/internal/ratelimit"
	"github.com/stretchr/testify/mock"
)

// Limiter is a mock type for the Limiter type
type Limiter struct {
	mock.Mock
}

// Allow provides a mock function with given fields: ctx, key, policy
func (_m *Limiter) Allow(ctx context.Context, key string, policy ratelimit.Policy) (ratelimit.Decision, error) {
	ret := _m.Called(ctx, key, policy)

	if len(ret) == 0 {
		panic("no return value specified for Allow")
	}

	var r0 ratelimit.Decision
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, ratelimit.Policy) (ratelimit.Decision, error)); ok {
		return rf(ctx, key, policy)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, ratelimit.Policy) ratelimit.Decision); ok {
		r0 = rf(ctx, key, policy)
	} else {
		r0 = ret.Get(0).(ratelimit.Decision)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, ratelimit.Policy) error); ok {
		r1 = rf(ctx, key, policy)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewLimiter creates a new instance of Limiter. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewLimiter(t interface {
	mock.TestingT
	Cleanup(func())
}) *Limiter {
	mock := &Limiter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
