// Package fanout consumes TaskCreated events and materializes the analytics,
// notification and audit projections.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskline/internal/archive"
	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/store"
)

// Envelope is the delivered batch. Records from sources other than the task
// publisher are ignored, and unknown fields in the detail are tolerated.
type Envelope struct {
	Records []Record `json:"Records"`
}

type Record struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detail-type"`
	Detail     json.RawMessage `json:"detail"`
}

type StepResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type RecordResult struct {
	TaskID        string     `json:"task_id"`
	TenantID      string     `json:"tenant_id"`
	Analytics     StepResult `json:"analytics"`
	Notifications StepResult `json:"notifications"`
	Audit         StepResult `json:"audit"`
}

type Summary struct {
	Processed int            `json:"processed_events"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []RecordResult `json:"results"`
}

type Pipeline struct {
	Store   *store.Store
	Archive *archive.Archive
	Log     *zap.Logger
	Now     func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

const timeLayout = "2006-01-02T15:04:05.000Z"

// Process runs the projections for every task event in the batch. Each
// record and each projection step is contained independently: one failure is
// reported in the summary without aborting siblings.
func (p *Pipeline) Process(ctx context.Context, env Envelope) Summary {
	var sum Summary
	for _, rec := range env.Records {
		if rec.Source != events.Source {
			continue
		}
		result := p.processRecord(ctx, rec)
		sum.Processed++
		sum.Results = append(sum.Results, result)
		if result.Analytics.Status == "success" && result.Notifications.Status == "success" && result.Audit.Status == "success" {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	p.log().Info("processed task events",
		zap.Int("processed", sum.Processed),
		zap.Int("failed", sum.Failed),
	)
	return sum
}

func (p *Pipeline) processRecord(ctx context.Context, rec Record) (result RecordResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log().Error("record processing panic", zap.Any("panic", r))
			msg := fmt.Sprintf("panic: %v", r)
			for _, step := range []*StepResult{&result.Analytics, &result.Notifications, &result.Audit} {
				if step.Status == "" {
					*step = StepResult{Status: "error", Error: msg}
				}
			}
		}
	}()

	var detail domain.TaskCreated
	if err := json.Unmarshal(rec.Detail, &detail); err != nil || detail.TaskID == "" || detail.TenantID == "" {
		if err == nil {
			err = fmt.Errorf("detail missing task_id or tenant_id")
		}
		p.log().Error("malformed event detail", zap.Error(err))
		bad := StepResult{Status: "error", Error: "malformed event detail"}
		return RecordResult{Analytics: bad, Notifications: bad, Audit: bad}
	}
	result.TaskID = detail.TaskID
	result.TenantID = detail.TenantID

	result.Analytics = p.step(detail, p.processAnalytics(ctx, detail), "analytics")
	result.Notifications = p.step(detail, p.sendNotifications(ctx, detail), "notifications")
	result.Audit = p.step(detail, p.recordAudit(ctx, detail), "audit")
	return result
}

func (p *Pipeline) step(detail domain.TaskCreated, err error, name string) StepResult {
	if err != nil {
		p.log().Error(name+" projection failed",
			zap.Error(err),
			zap.String("task_id", detail.TaskID),
			zap.String("tenant_id", detail.TenantID),
		)
		return StepResult{Status: "error", Error: err.Error()}
	}
	return StepResult{Status: "success"}
}

func (p *Pipeline) processAnalytics(ctx context.Context, detail domain.TaskCreated) error {
	if err := p.Store.PutAnalytics(ctx, domain.AnalyticsRecord{
		EventType: "TASK_CREATED",
		TaskID:    detail.TaskID,
		TenantID:  detail.TenantID,
		CreatedBy: detail.CreatedBy,
		Timestamp: detail.CreatedAt,
	}); err != nil {
		return err
	}
	return p.Store.BumpTaskMetrics(ctx, detail.TenantID, detail.CreatedAt)
}

func (p *Pipeline) sendNotifications(ctx context.Context, detail domain.TaskCreated) error {
	channels, err := p.Store.GetNotificationChannels(ctx, detail.TenantID)
	if err != nil {
		return err
	}
	// Fire and forget at this layer: the record marks the dispatch, delivery
	// confirmation is out of scope.
	return p.Store.PutNotification(ctx, p.now().UTC().Format(timeLayout), domain.NotificationRecord{
		NotificationType: "TASK_CREATED",
		TaskID:           detail.TaskID,
		TenantID:         detail.TenantID,
		Title:            detail.Title,
		CreatedBy:        detail.CreatedBy,
		Status:           "SENT",
		Channels:         channels,
	})
}

// recordAudit writes the table record and the archive object. Both are
// required for the step to count as successful; neither is retried here.
func (p *Pipeline) recordAudit(ctx context.Context, detail domain.TaskCreated) error {
	rec := domain.AuditRecord{
		Action:       "TASK_CREATED",
		ResourceType: "TASK",
		ResourceID:   detail.TaskID,
		TenantID:     detail.TenantID,
		UserID:       detail.CreatedBy,
		Timestamp:    detail.CreatedAt,
		Details: map[string]string{
			"task_title":   detail.Title,
			"event_source": "task_management_api",
		},
	}
	if err := p.Store.PutAudit(ctx, rec); err != nil {
		return err
	}
	return p.Archive.PutAudit(ctx, rec)
}
