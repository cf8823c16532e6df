package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"taskline/internal/auth"
	"taskline/internal/domain"
)

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
}

// Create handles POST /tasks. The task write commits before the event is
// published; a publish failure is logged as a warning and does not fail the
// request.
func (h *Handlers) Create(ctx context.Context, req events.APIGatewayProxyRequest) (res events.APIGatewayProxyResponse) {
	defer h.recoverInternal(&res)
	now := h.now()

	tc, err := extractTenantContext(req)
	if err != nil {
		return respondError(http.StatusUnauthorized, errUnauthorized, err.Error(), now)
	}
	h.logRequest(req, tc)

	if !auth.CanPerform(tc.Role, auth.ActionCreate, "", tc.UserID) {
		return respondError(http.StatusForbidden, errForbidden, auth.ForbiddenError{Action: auth.ActionCreate}.Error(), now)
	}

	var body createRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respondError(http.StatusBadRequest, errInvalidJSON, "request body must be valid JSON", now)
	}

	task := domain.Task{
		TaskID:      h.NewID(),
		TenantID:    tc.TenantID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		AssignedTo:  body.AssignedTo,
		CreatedBy:   tc.UserID,
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	}
	if task.Status == "" {
		task.Status = domain.StatusOpen
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := domain.ValidateNewTask(task); err != nil {
		return respondError(http.StatusBadRequest, errBadRequest, err.Error(), now)
	}

	if err := h.Store.PutTask(ctx, task); err != nil {
		h.log().Error("create task", zap.Error(err), zap.String("tenant_id", tc.TenantID))
		return respondError(http.StatusInternalServerError, errInternal, "failed to create task", now)
	}
	h.log().Info("task created",
		zap.String("task_id", task.TaskID),
		zap.String("tenant_id", tc.TenantID),
	)

	if h.Publisher == nil {
		// No bus configured (local harness); projections stay empty.
		return respond(http.StatusCreated, task)
	}
	if err := h.Publisher.PublishTaskCreated(ctx, domain.TaskCreated{
		TaskID:    task.TaskID,
		TenantID:  task.TenantID,
		Title:     task.Title,
		CreatedBy: task.CreatedBy,
		CreatedAt: task.CreatedAt,
	}); err != nil {
		// Best effort: the record is committed, projections catch up later.
		h.log().Warn("publish task created", zap.Error(err), zap.String("task_id", task.TaskID))
	}

	return respond(http.StatusCreated, task)
}

func (h *Handlers) recoverInternal(res *events.APIGatewayProxyResponse) {
	if r := recover(); r != nil {
		h.log().Error("handler panic", zap.Any("panic", r))
		*res = respondError(http.StatusInternalServerError, errInternal, "unexpected error", h.now())
	}
}
