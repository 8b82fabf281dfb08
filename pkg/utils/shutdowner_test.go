package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type appStub struct {
	mock.Mock
}

func newAppStub(t *testing.T) *appStub {
	s := new(appStub)

	t.Cleanup(func() { s.AssertExpectations(t) })

	return s
}

func (s *appStub) Shutdown(ctx context.Context) error {
	return s.Called().Error(0)
}

func TestShutdowner_ok(t *testing.T) {
	s1 := newAppStub(t)
	s2 := newAppStub(t)
	s3 := newAppStub(t)

	s1.On("Shutdown").Return(nil).Once()
	s2.On("Shutdown").Return(nil).Once()
	s3.On("Shutdown").Return(nil).Once()

	group := NewGroupShutdown(s1, s2, s3)

	require.NoError(t, group.Shutdown(context.Background()))
}

func TestShutdowner_with_errors(t *testing.T) {
	s1 := newAppStub(t)
	s2 := newAppStub(t)

	boom := errors.New("boom")
	s1.On("Shutdown").Return(nil).Once()
	s2.On("Shutdown").Return(boom).Once()

	group := NewGroupShutdown(s1, s2)

	err := group.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestShutdowner_empty_group(t *testing.T) {
	require.NoError(t, NopShutdown.Shutdown(context.Background()))
}
