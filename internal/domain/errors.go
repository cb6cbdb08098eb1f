package domain

import "errors"

// ErrSubscriptionNotFound is returned by stores when no subscription
// exists for the requested id.
var ErrSubscriptionNotFound = errors.New("subscription not found")
