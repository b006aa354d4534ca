package ports

import (
	"context"

	"github.com/inkframe/cms-api/internal/core/domain"
)

// ContentEventKind tells a realtime subscriber what happened to a content.
type ContentEventKind string

const (
	ContentUpdated ContentEventKind = "updated"
	ContentDeleted ContentEventKind = "deleted"
)

// ContentEvent is a committed content mutation to fan out to viewers.
type ContentEvent struct {
	Kind      ContentEventKind `json:"kind"`
	ContentID string           `json:"contentId"`
	Content   *domain.Content  `json:"content,omitempty"`
}

// ContentNotifier is called by the content service after a mutation has been
// persisted. Implementations must not block the caller or report failures.
type ContentNotifier interface {
	NotifyUpdated(content *domain.Content)
	NotifyDeleted(contentID string)
}

// ContentPublisher delivers a content event to its subscribers.
type ContentPublisher interface {
	Publish(ctx context.Context, event ContentEvent) error
}
