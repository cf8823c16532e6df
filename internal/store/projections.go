package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskline/internal/domain"
)

// Write paths used by the event fan-out. Analytics, notification and audit
// records are append-only: created here once, never mutated by this system.

type analyticsItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"entity_type"`
	domain.AnalyticsRecord
}

func (s *Store) PutAnalytics(ctx context.Context, r domain.AnalyticsRecord) error {
	item, err := attributevalue.MarshalMap(analyticsItem{
		PK:              TenantPK(r.TenantID),
		SK:              AnalyticsSK(r.Timestamp, r.TaskID),
		GSI1PK:          AnalyticsGSIPK(r.TenantID),
		GSI1SK:          fmt.Sprintf("%s#%s", r.EventType, r.Timestamp),
		EntityType:      domain.EntityAnalytics,
		AnalyticsRecord: r,
	})
	if err != nil {
		return fmt.Errorf("marshal analytics record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put analytics record: %w", err)
	}
	return nil
}

// BumpTaskMetrics increments the per-tenant counters with an atomic ADD.
// Concurrent fan-out invocations for the same tenant must not lose
// increments, so this is never a read-modify-write or an overwrite.
func (s *Store) BumpTaskMetrics(ctx context.Context, tenantID, createdAt string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: MetricsSK},
		},
		UpdateExpression: aws.String("ADD total_tasks :one, tasks_this_month :one SET last_task_created = :ts, entity_type = :etype, tenant_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":ts":    &types.AttributeValueMemberS{Value: createdAt},
			":etype": &types.AttributeValueMemberS{Value: domain.EntityMetrics},
			":tid":   &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return fmt.Errorf("bump task metrics: %w", err)
	}
	return nil
}

type metricsItem struct {
	EntityType string `dynamodbav:"entity_type"`
	domain.MetricsRecord
}

func (s *Store) GetMetrics(ctx context.Context, tenantID string) (domain.MetricsRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: MetricsSK},
		},
	})
	if err != nil {
		return domain.MetricsRecord{}, fmt.Errorf("get metrics: %w", err)
	}
	if out.Item == nil {
		return domain.MetricsRecord{}, ErrNotFound
	}
	var item metricsItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.MetricsRecord{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return item.MetricsRecord, nil
}

type notificationItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"entity_type"`
	domain.NotificationRecord
}

func (s *Store) PutNotification(ctx context.Context, ts string, r domain.NotificationRecord) error {
	item, err := attributevalue.MarshalMap(notificationItem{
		PK:                 TenantPK(r.TenantID),
		SK:                 NotificationSK(ts, r.TaskID),
		EntityType:         domain.EntityNotification,
		NotificationRecord: r,
	})
	if err != nil {
		return fmt.Errorf("marshal notification record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put notification record: %w", err)
	}
	return nil
}

type auditItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"entity_type"`
	domain.AuditRecord
}

func (s *Store) PutAudit(ctx context.Context, r domain.AuditRecord) error {
	item, err := attributevalue.MarshalMap(auditItem{
		PK:          TenantPK(r.TenantID),
		SK:          AuditSK(r.Timestamp, r.ResourceID),
		GSI1PK:      AuditGSIPK(r.TenantID),
		GSI1SK:      fmt.Sprintf("%s#%s", r.Action, r.Timestamp),
		EntityType:  domain.EntityAudit,
		AuditRecord: r,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put audit record: %w", err)
	}
	return nil
}

// ListAudit returns the most recent audit records for a tenant via the
// secondary index.
func (s *Store) ListAudit(ctx context.Context, tenantID string, limit int32) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(s.gsi),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: AuditGSIPK(tenantID)},
		},
		Limit:            aws.Int32(limit),
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	records := make([]domain.AuditRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item auditItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal audit item: %w", err)
		}
		if item.EntityType != domain.EntityAudit {
			continue
		}
		records = append(records, item.AuditRecord)
	}
	return records, nil
}

type settingsItem struct {
	EntityType string `dynamodbav:"entity_type"`
	domain.NotificationSettings
}

// GetNotificationChannels returns the tenant's configured channels, or the
// defaults when no settings record exists.
func (s *Store) GetNotificationChannels(ctx context.Context, tenantID string) ([]string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: NotificationSettingsSK},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	if out.Item == nil {
		return domain.DefaultChannels, nil
	}
	var item settingsItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal notification settings: %w", err)
	}
	if item.EntityType != domain.EntityTenantSetting || len(item.Channels) == 0 {
		return domain.DefaultChannels, nil
	}
	return item.Channels, nil
}
