package driving

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// ChatService orchestrates one inbound message end to end: cache check,
// session resolution, retrieval, context assembly, generation, persistence.
type ChatService interface {
	// HandleMessage produces a reply for the identity's message. Retrieval
	// and cache failures degrade silently; a generation failure returns
	// domain.ErrGenerationFailed.
	HandleMessage(ctx context.Context, identityHint, text string) (*domain.Reply, error)
}
