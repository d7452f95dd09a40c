package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"auramythos/archive"
	"auramythos/errx"
	"auramythos/generator"
	"auramythos/store"
)

type errorResp struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResp{
		Code:      status,
		Message:   msg,
		RequestID: c.GetString(requestIDKey),
	})
}

// classify maps an error to a status code and a message safe to return to
// clients.
func classify(err error) (int, string) {
	var genErr *generator.GenerationError
	switch {
	case errors.Is(err, generator.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound, "story not found"
	case errors.As(err, &genErr):
		if generator.ProviderStatus(err) == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, errx.GenerationErrorMessage
		}
		return http.StatusBadGateway, errx.GenerationErrorMessage
	}
	return errx.StatusOf(err), errx.MessageOf(err)
}
