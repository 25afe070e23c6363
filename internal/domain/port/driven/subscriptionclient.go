package driven

import (
	"context"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// SubscriptionClient defines the driven port for the remote subscription
// service. Failures are never returned as errors: a nil result means the
// status could not be fetched and the caller treats it as unknown.
type SubscriptionClient interface {
	FetchProfile(ctx context.Context, token string) *model.Profile
	FetchUsage(ctx context.Context, token string) *model.Usage
}
