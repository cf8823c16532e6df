package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"taskline/internal/auth"
	"taskline/internal/store"
)

type deleteResponse struct {
	Message     string      `json:"message"`
	DeletedTask deletedTask `json:"deleted_task"`
}

type deletedTask struct {
	TaskID    string `json:"task_id"`
	TenantID  string `json:"tenant_id"`
	Title     string `json:"title"`
	DeletedBy string `json:"deleted_by"`
	DeletedAt string `json:"deleted_at"`
}

// Delete handles DELETE /tasks/{id}. Admin only; the role gate runs before
// any store access. Deletes are hard: no tombstone is written.
func (h *Handlers) Delete(ctx context.Context, req events.APIGatewayProxyRequest) (res events.APIGatewayProxyResponse) {
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

	if !auth.CanPerform(tc.Role, auth.ActionDelete, "", tc.UserID) {
		return respondError(http.StatusForbidden, errForbidden, "only administrators can delete tasks", now)
	}

	existing, err := h.Store.GetTask(ctx, tc.TenantID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return respondError(http.StatusNotFound, errNotFound, "task "+taskID+" not found", now)
	}
	if err != nil {
		h.log().Error("get task", zap.Error(err), zap.String("task_id", taskID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to delete task", now)
	}

	if err := h.Store.DeleteTask(ctx, tc.TenantID, taskID); err != nil {
		h.log().Error("delete task", zap.Error(err), zap.String("task_id", taskID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to delete task", now)
	}
	h.log().Info("task deleted",
		zap.String("task_id", taskID),
		zap.String("tenant_id", tc.TenantID),
		zap.String("deleted_by", tc.UserID),
	)

	return respond(http.StatusOK, deleteResponse{
		Message: "Task deleted successfully",
		DeletedTask: deletedTask{
			TaskID:    taskID,
			TenantID:  tc.TenantID,
			Title:     existing.Title,
			DeletedBy: tc.UserID,
			DeletedAt: formatTime(now),
		},
	})
}
