package handler

import (
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	taskevents "taskline/internal/events"
	"taskline/internal/store"
)

// Handlers owns the injected collaborators for the task operations. Each
// platform invocation is stateless; all state lives behind Store/Publisher.
type Handlers struct {
	Store     *store.Store
	Publisher *taskevents.Publisher
	Log       *zap.Logger

	// Now and NewID are swappable for tests.
	Now   func() time.Time
	NewID func() string
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) log() *zap.Logger {
	if h.Log != nil {
		return h.Log
	}
	return zap.NewNop()
}

// tenantContext is the claim set forwarded by the authorizer.
type tenantContext struct {
	TenantID string
	UserID   string
	Role     string
	Email    string
}

func extractTenantContext(req events.APIGatewayProxyRequest) (tenantContext, error) {
	authz := req.RequestContext.Authorizer
	get := func(key string) string {
		v, _ := authz[key].(string)
		return v
	}
	tc := tenantContext{
		TenantID: get("tenant_id"),
		UserID:   get("user_id"),
		Role:     get("role"),
		Email:    get("email"),
	}
	if tc.TenantID == "" || tc.UserID == "" || tc.Role == "" {
		return tenantContext{}, fmt.Errorf("missing authorization context")
	}
	return tc, nil
}

func (h *Handlers) logRequest(req events.APIGatewayProxyRequest, tc tenantContext) {
	h.log().Info("api request",
		zap.String("method", req.HTTPMethod),
		zap.String("path", req.Path),
		zap.String("tenant_id", tc.TenantID),
		zap.String("user_id", tc.UserID),
		zap.String("source_ip", req.RequestContext.Identity.SourceIP),
	)
}
