package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"taskline/internal/auth"
	"taskline/internal/domain"
	"taskline/internal/store"
)

// Update handles PUT /tasks/{id}. Fields absent from the body keep their
// prior values; updated_at always advances. A task under another tenant's
// partition reads as not found, never as forbidden.
func (h *Handlers) Update(ctx context.Context, req events.APIGatewayProxyRequest) (res events.APIGatewayProxyResponse) {
	defer h.recoverInternal(&res)
	now := h.now()

	tc, err := extractTenantContext(req)
	if err != nil {
		return respondError(http.StatusUnauthorized, errUnauthorized, err.Error(), now)
	}
	h.logRequest(req, tc)

	taskID := req.PathParameters["id"]
	if taskID == "" {
		return respondError(http.StatusBadRequest, errBadRequest, "task id is required", now)
	}

	var patch domain.TaskPatch
	if err := json.Unmarshal([]byte(req.Body), &patch); err != nil {
		return respondError(http.StatusBadRequest, errInvalidJSON, "request body must be valid JSON", now)
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return respondError(http.StatusBadRequest, errBadRequest, err.Error(), now)
	}

	existing, err := h.Store.GetTask(ctx, tc.TenantID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return respondError(http.StatusNotFound, errNotFound, "task "+taskID+" not found", now)
	}
	if err != nil {
		h.log().Error("get task", zap.Error(err), zap.String("task_id", taskID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to update task", now)
	}

	if !auth.CanPerform(tc.Role, auth.ActionUpdate, existing.CreatedBy, tc.UserID) {
		return respondError(http.StatusForbidden, errForbidden, auth.ForbiddenError{Action: auth.ActionUpdate}.Error(), now)
	}

	updated, err := h.Store.UpdateTask(ctx, tc.TenantID, taskID, patch, formatTime(now))
	if err != nil {
		h.log().Error("update task", zap.Error(err), zap.String("task_id", taskID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to update task", now)
	}
	h.log().Info("task updated",
		zap.String("task_id", taskID),
		zap.String("tenant_id", tc.TenantID),
	)
	return respond(http.StatusOK, updated)
}
