package mocks

import (
	"context"

	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// SessionStore is a mock type for the SessionStore type
type SessionStore struct {
	mock.Mock
}

// Delete provides a mock function with given fields: ctx, key
func (_m *SessionStore) Delete(ctx context.Context, key model.SessionKey) error {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for Delete")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.SessionKey) error); ok {
		r0 = rf(ctx, key)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// DeleteOthers provides a mock function with given fields: ctx, userID, keepDeviceID
func (_m *SessionStore) DeleteOthers(ctx context.Context, userID uuid.UUID, keepDeviceID string) error {
	ret := _m.Called(ctx, userID, keepDeviceID)

	if len(ret) == 0 {
		panic("no return value specified for DeleteOthers")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID, string) error); ok {
		r0 = rf(ctx, userID, keepDeviceID)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// FindByDeviceID provides a mock function with given fields: ctx, deviceID
func (_m *SessionStore) FindByDeviceID(ctx context.Context, deviceID string) ([]model.DeviceSession, error) {
	ret := _m.Called(ctx, deviceID)

	if len(ret) == 0 {
		panic("no return value specified for FindByDeviceID")
	}

	var r0 []model.DeviceSession
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.DeviceSession, error)); ok {
		return rf(ctx, deviceID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.DeviceSession); ok {
		r0 = rf(ctx, deviceID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.DeviceSession)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, deviceID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Get provides a mock function with given fields: ctx, key
func (_m *SessionStore) Get(ctx context.Context, key model.SessionKey) (model.DeviceSession, error) {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 model.DeviceSession
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.SessionKey) (model.DeviceSession, error)); ok {
		return rf(ctx, key)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.SessionKey) model.DeviceSession); ok {
		r0 = rf(ctx, key)
	} else {
		r0 = ret.Get(0).(model.DeviceSession)
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.SessionKey) error); ok {
		r1 = rf(ctx, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListByUser provides a mock function with given fields: ctx, userID
func (_m *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.DeviceSession, error) {
	ret := _m.Called(ctx, userID)

	if len(ret) == 0 {
		panic("no return value specified for ListByUser")
	}

	var r0 []model.DeviceSession
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) ([]model.DeviceSession, error)); ok {
		return rf(ctx, userID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) []model.DeviceSession); ok {
		r0 = rf(ctx, userID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.DeviceSession)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, userID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Rotate provides a mock function with given fields: ctx, key, expectedTokenID, next
func (_m *SessionStore) Rotate(ctx context.Context, key model.SessionKey, expectedTokenID string, next model.SessionRotation) error {
	ret := _m.Called(ctx, key, expectedTokenID, next)

	if len(ret) == 0 {
		panic("no return value specified for Rotate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.SessionKey, string, model.SessionRotation) error); ok {
		r0 = rf(ctx, key, expectedTokenID, next)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Upsert provides a mock function with given fields: ctx, session
func (_m *SessionStore) Upsert(ctx context.Context, session model.DeviceSession) error {
	ret := _m.Called(ctx, session)

	if len(ret) == 0 {
		panic("no return value specified for Upsert")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.DeviceSession) error); ok {
		r0 = rf(ctx, session)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewSessionStore creates a new instance of SessionStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *SessionStore {
	mock := &SessionStore{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
