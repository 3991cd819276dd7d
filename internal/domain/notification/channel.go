// internal/domain/notification/channel.go
package notification

import (
	"context"
	"errors"
)

// ErrChannelUnavailable is returned by a channel that can not deliver at all
// (no permission, no session bus, not configured).
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Notifier is a best-effort native notification channel (OS notification center, push message).
type Notifier interface {
	Notify(ctx context.Context, title, body, tag string) error
}

// Toaster is the in-app fallback sink.
type Toaster interface {
	Toast(body string, severity Severity) error
}
