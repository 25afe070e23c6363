package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

func TestTokenLocator_SourceOrderPrecedence(t *testing.T) {
	locator := application.NewTokenLocator(
		staticSource("storage.json", "config-token", nil),
		staticSource("state database", "db-token", nil),
		staticSource("session log", "log-token", nil),
	)

	assert.Equal(t, "config-token", locator.Locate(context.Background()))
}

func TestTokenLocator_FallsThroughEmptyAndFailingSources(t *testing.T) {
	locator := application.NewTokenLocator(
		staticSource("storage.json", "", errors.New("invalid character")),
		staticSource("state database", "", nil),
		staticSource("session log", "log-token", nil),
	)

	assert.Equal(t, "log-token", locator.Locate(context.Background()))
}

func TestTokenLocator_ShortCircuitsOnFirstHit(t *testing.T) {
	var laterCalled bool
	locator := application.NewTokenLocator(
		staticSource("storage.json", "", nil),
		staticSource("state database", "db-token", nil),
		driven.TokenSourceFunc{SourceName: "session log", Fn: func(context.Context) (string, error) {
			laterCalled = true
			return "log-token", nil
		}},
	)

	assert.Equal(t, "db-token", locator.Locate(context.Background()))
	assert.False(t, laterCalled)
}

func TestTokenLocator_AllSourcesExhausted(t *testing.T) {
	locator := application.NewTokenLocator(
		staticSource("storage.json", "", errors.New("permission denied")),
		staticSource("state database", "", driven.ErrNotConnected),
		staticSource("session log", "", nil),
	)

	assert.Empty(t, locator.Locate(context.Background()))
	assert.Empty(t, application.NewTokenLocator().Locate(context.Background()))
}
