package mocks

import (
	"context"

	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// AuthService is a mock type for the AuthService type
type AuthService struct {
	mock.Mock
}

// ConfirmEmail provides a mock function with given fields: ctx, code
func (_m *AuthService) ConfirmEmail(ctx context.Context, code string) error {
	ret := _m.Called(ctx, code)

	if len(ret) == 0 {
		panic("no return value specified for ConfirmEmail")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, code)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetUserID provides a mock function with given fields: ctx, accessToken
func (_m *AuthService) GetUserID(ctx context.Context, accessToken string) (uuid.UUID, error) {
	ret := _m.Called(ctx, accessToken)

	if len(ret) == 0 {
		panic("no return value specified for GetUserID")
	}

	var r0 uuid.UUID
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (uuid.UUID, error)); ok {
		return rf(ctx, accessToken)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) uuid.UUID); ok {
		r0 = rf(ctx, accessToken)
	} else {
		r0 = ret.Get(0).(uuid.UUID)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, accessToken)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListDevices provides a mock function with given fields: ctx, refreshToken
func (_m *AuthService) ListDevices(ctx context.Context, refreshToken string) ([]model.DeviceSession, error) {
	ret := _m.Called(ctx, refreshToken)

	if len(ret) == 0 {
		panic("no return value specified for ListDevices")
	}

	var r0 []model.DeviceSession
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.DeviceSession, error)); ok {
		return rf(ctx, refreshToken)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.DeviceSession); ok {
		r0 = rf(ctx, refreshToken)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.DeviceSession)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, refreshToken)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Login provides a mock function with given fields: ctx, in
func (_m *AuthService) Login(ctx context.Context, in model.LoginInput) (model.TokenPair, error) {
	ret := _m.Called(ctx, in)

	if len(ret) == 0 {
		panic("no return value specified for Login")
	}

	var r0 model.TokenPair
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.LoginInput) (model.TokenPair, error)); ok {
		return rf(ctx, in)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.LoginInput) model.TokenPair); ok {
		r0 = rf(ctx, in)
	} else {
		r0 = ret.Get(0).(model.TokenPair)
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.LoginInput) error); ok {
		r1 = rf(ctx, in)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Logout provides a mock function with given fields: ctx, refreshToken
func (_m *AuthService) Logout(ctx context.Context, refreshToken string) error {
	ret := _m.Called(ctx, refreshToken)

	if len(ret) == 0 {
		panic("no return value specified for Logout")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, refreshToken)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Me provides a mock function with given fields: ctx, userID
func (_m *AuthService) Me(ctx context.Context, userID uuid.UUID) (model.User, error) {
	ret := _m.Called(ctx, userID)

	if len(ret) == 0 {
		panic("no return value specified for Me")
	}

	var r0 model.User
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (model.User, error)); ok {
		return rf(ctx, userID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) model.User); ok {
		r0 = rf(ctx, userID)
	} else {
		r0 = ret.Get(0).(model.User)
	}

	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, userID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewPassword provides a mock function with given fields: ctx, code, newPassword
func (_m *AuthService) NewPassword(ctx context.Context, code string, newPassword string) error {
	ret := _m.Called(ctx, code, newPassword)

	if len(ret) == 0 {
		panic("no return value specified for NewPassword")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		r0 = rf(ctx, code, newPassword)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// PasswordRecovery provides a mock function with given fields: ctx, email
func (_m *AuthService) PasswordRecovery(ctx context.Context, email string) error {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for PasswordRecovery")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Refresh provides a mock function with given fields: ctx, refreshToken, ip
func (_m *AuthService) Refresh(ctx context.Context, refreshToken string, ip string) (model.TokenPair, error) {
	ret := _m.Called(ctx, refreshToken, ip)

	if len(ret) == 0 {
		panic("no return value specified for Refresh")
	}

	var r0 model.TokenPair
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (model.TokenPair, error)); ok {
		return rf(ctx, refreshToken, ip)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) model.TokenPair); ok {
		r0 = rf(ctx, refreshToken, ip)
	} else {
		r0 = ret.Get(0).(model.TokenPair)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, refreshToken, ip)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Register provides a mock function with given fields: ctx, in
func (_m *AuthService) Register(ctx context.Context, in model.RegisterInput) error {
	ret := _m.Called(ctx, in)

	if len(ret) == 0 {
		panic("no return value specified for Register")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.RegisterInput) error); ok {
		r0 = rf(ctx, in)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ResendConfirmation provides a mock function with given fields: ctx, email
func (_m *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for ResendConfirmation")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// TerminateDevice provides a mock function with given fields: ctx, refreshToken, deviceID
func (_m *AuthService) TerminateDevice(ctx context.Context, refreshToken string, deviceID string) error {
	ret := _m.Called(ctx, refreshToken, deviceID)

	if len(ret) == 0 {
		panic("no return value specified for TerminateDevice")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		r0 = rf(ctx, refreshToken, deviceID)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// TerminateOtherDevices provides a mock function with given fields: ctx, refreshToken
func (_m *AuthService) TerminateOtherDevices(ctx context.Context, refreshToken string) error {
	ret := _m.Called(ctx, refreshToken)

	if len(ret) == 0 {
		panic("no return value specified for TerminateOtherDevices")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, refreshToken)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewAuthService creates a new instance of AuthService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthService {
	mock := &AuthService{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
