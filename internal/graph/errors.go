package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ayush/pinboard/backend/internal/models"
)

// Error is returned from resolvers. graphql-go copies Extensions into the
// response, so clients can branch on extensions.code.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// toGraphError exposes AppErrors as-is and hides everything else.
func toGraphError(ctx context.Context, log *slog.Logger, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		return &Error{Message: appErr.Message, Code: appErr.Code}
	}
	log.ErrorContext(ctx, "resolver failed", slog.String("error", err.Error()))
	return &Error{Message: "Internal server error", Code: models.CodeInternal}
}
