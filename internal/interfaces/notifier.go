package interfaces

import "context"

// Notifier surfaces short user-facing messages (toasts in a browser,
// styled lines in a terminal).
type Notifier interface {
	Notify(ctx context.Context, title, description string)
}
