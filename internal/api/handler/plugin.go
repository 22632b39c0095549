// Package handler provides HTTP handlers for the relay.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/statusrelay/statusrelay/internal/api/middleware"
	"github.com/statusrelay/statusrelay/internal/api/response"
	"github.com/statusrelay/statusrelay/internal/plugin"
)

// DefaultMaxBodyBytes caps the size of a plugin request body.
const DefaultMaxBodyBytes int64 = 1 << 20

// Dispatcher routes a raw plugin envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) plugin.Response
}

// PluginHandler serves the plugin protocol endpoint.
type PluginHandler struct {
	dispatcher   Dispatcher
	logger       zerolog.Logger
	maxBodyBytes int64
}

// NewPluginHandler creates a PluginHandler. maxBodyBytes <= 0 uses DefaultMaxBodyBytes.
func NewPluginHandler(dispatcher Dispatcher, logger zerolog.Logger, maxBodyBytes int64) *PluginHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &PluginHandler{
		dispatcher:   dispatcher,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Handle handles POST / - one envelope in, one JSON result out.
// An unreadable or oversized body is answered as a malformed envelope.
func (h *PluginHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		h.logger.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Bool("too_large", errors.As(err, &tooLarge)).
			Msg("reading plugin request body")

		resp := plugin.Fail(plugin.BadBodyFormat)
		response.JSON(w, r, resp.Status, resp.Body)
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), body)
	response.JSON(w, r, resp.Status, resp.Body)
}
