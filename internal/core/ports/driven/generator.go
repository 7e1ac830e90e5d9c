package driven

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// Generator is the external language-generation collaborator. It turns an
// assembled context bundle into prose. Failures surface to the caller as
// domain.ErrGenerationFailed; retry policy belongs to the caller layer,
// never here.
type Generator interface {
	Generate(ctx context.Context, bundle domain.ContextBundle) (string, error)
}
