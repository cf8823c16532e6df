package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"taskline/internal/auth"
	"taskline/internal/domain"
	"taskline/internal/store"
)

type listResponse struct {
	Tasks      []domain.Task `json:"tasks"`
	Pagination pagination    `json:"pagination"`
	Filters    listFilters   `json:"filters"`
}

type pagination struct {
	Count   int    `json:"count"`
	HasMore bool   `json:"has_more"`
	LastKey string `json:"last_key,omitempty"`
}

type listFilters struct {
	Status   string `json:"status,omitempty"`
	TenantID string `json:"tenant_id"`
}

// List handles GET /tasks with optional status filter and pagination. A
// malformed cursor falls back to the first page rather than failing the
// request.
func (h *Handlers) List(ctx context.Context, req events.APIGatewayProxyRequest) (res events.APIGatewayProxyResponse) {
	defer h.recoverInternal(&res)
	now := h.now()

	tc, err := extractTenantContext(req)
	if err != nil {
		return respondError(http.StatusUnauthorized, errUnauthorized, err.Error(), now)
	}
	h.logRequest(req, tc)

	if !auth.CanPerform(tc.Role, auth.ActionRead, "", tc.UserID) {
		return respondError(http.StatusForbidden, errForbidden, auth.ForbiddenError{Action: auth.ActionRead}.Error(), now)
	}

	params := req.QueryStringParameters
	opts := store.ListOptions{Status: params["status"]}
	if opts.Status != "" && !domain.ValidStatus(opts.Status) {
		return respondError(http.StatusBadRequest, errBadRequest, "invalid status filter", now)
	}
	if raw := params["limit"]; raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return respondError(http.StatusBadRequest, errBadRequest, "invalid limit parameter", now)
		}
		opts.Limit = int32(limit)
	}
	if raw := params["last_key"]; raw != "" {
		key, err := store.DecodeCursor(raw)
		if err != nil {
			h.log().Warn("invalid last_key parameter", zap.Error(err), zap.String("tenant_id", tc.TenantID))
		} else {
			opts.StartKey = key
		}
	}

	result, err := h.Store.ListTasks(ctx, tc.TenantID, opts)
	if err != nil {
		h.log().Error("list tasks", zap.Error(err), zap.String("tenant_id", tc.TenantID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to retrieve tasks", now)
	}

	out := listResponse{
		Tasks: result.Tasks,
		Pagination: pagination{
			Count:   len(result.Tasks),
			HasMore: result.HasMore,
		},
		Filters: listFilters{Status: opts.Status, TenantID: tc.TenantID},
	}
	if result.HasMore {
		cursor, err := store.EncodeCursor(result.LastKey)
		if err != nil {
			h.log().Error("encode cursor", zap.Error(err))
			return respondError(http.StatusInternalServerError, errInternal, "failed to retrieve tasks", now)
		}
		out.Pagination.LastKey = cursor
	}
	return respond(http.StatusOK, out)
}
