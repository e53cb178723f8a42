package handler

import (
	"net/http"

	"go-auth-service/internal/middleware"
	"go-auth-service/pkg/apierror"
)

// DemoHandler serves a trivial protected endpoint for exercising the
// authentication pipeline end to end.
type DemoHandler struct{}

func NewDemoHandler() *DemoHandler {
	return &DemoHandler{}
}

func (h *DemoHandler) Greet(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message":     "Hello, you've reached the secured endpoint",
		"username":    identity.Username,
		"authorities": identity.Authorities,
	})
}
