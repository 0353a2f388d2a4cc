package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate_backend/internal/logger"
	"paygate_backend/internal/services/paycom"
)

// PaycomHandler is the provider-facing webhook endpoint. Whatever happens,
// the response body is a well-formed JSON-RPC envelope: the provider's retry
// policy depends on being able to parse it.
type PaycomHandler struct {
	authenticator *paycom.Authenticator
	service       *paycom.Service
}

func NewPaycomHandler(authenticator *paycom.Authenticator, service *paycom.Service) *PaycomHandler {
	return &PaycomHandler{
		authenticator: authenticator,
		service:       service,
	}
}

// RegisterRoutes mounts the webhook. No JWT middleware: the provider
// authenticates with HTTP Basic, checked inside Handle.
func (h *PaycomHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/paycom", h.Handle)
}

func (h *PaycomHandler) Handle(c *gin.Context) {
	var req paycom.Request
	bindErr := c.ShouldBindJSON(&req)

	// Credentials are checked before anything the body says is acted on. A
	// caller that fails auth gets -32504 even when the body is garbage; the
	// id is echoed when the body was parseable, null otherwise.
	if authErr := h.authenticator.Authenticate(c.GetHeader("Authorization")); authErr != nil {
		// 401 at the HTTP level, but the provider inspects the body, so it
		// still carries the protocol error.
		c.JSON(http.StatusUnauthorized, paycom.NewErrorResponse(req.ID, authErr))
		return
	}

	if bindErr != nil {
		logger.CtxWithError(c.Request.Context(), "malformed paycom request body", bindErr)
		c.JSON(http.StatusOK, paycom.NewErrorResponse(nil, paycom.ErrInternal()))
		return
	}

	resp := h.service.Dispatch(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}
