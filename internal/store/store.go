package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskline/internal/domain"
)

var ErrNotFound = errors.New("not found")

// DynamoAPI is the subset of the DynamoDB client the store uses. Handlers
// receive a constructed Store so tests can substitute a fake client.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store provides tenant-scoped access to the shared table. Every query path
// is keyed under one tenant partition; cross-tenant reads are impossible by
// construction.
type Store struct {
	client DynamoAPI
	table  string
	gsi    string
}

func New(client DynamoAPI, table, gsi string) *Store {
	return &Store{client: client, table: table, gsi: gsi}
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type taskItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"entity_type"`
	domain.Task
}

func taskKey(tenantID, taskID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
		"SK": &types.AttributeValueMemberS{Value: TaskSK(taskID)},
	}
}

// PutTask persists a freshly created task. The id is new, so no existence
// check is needed.
func (s *Store) PutTask(ctx context.Context, t domain.Task) error {
	item, err := attributevalue.MarshalMap(taskItem{
		PK:         TenantPK(t.TenantID),
		SK:         TaskSK(t.TaskID),
		GSI1PK:     TenantPK(t.TenantID),
		GSI1SK:     TaskGSISK(t.Status, t.UpdatedAt),
		EntityType: domain.EntityTask,
		Task:       t,
	})
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

// GetTask returns ErrNotFound when the item is absent from this tenant's
// partition or is not a task entity. A task id under another tenant always
// misses.
func (s *Store) GetTask(ctx context.Context, tenantID, taskID string) (domain.Task, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       taskKey(tenantID, taskID),
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	if out.Item == nil {
		return domain.Task{}, ErrNotFound
	}
	var item taskItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	if item.EntityType != domain.EntityTask {
		return domain.Task{}, ErrNotFound
	}
	return item.Task, nil
}

// UpdateTask applies a field-level merge in a single write: only fields
// present in the patch change, updated_at always advances, and when status
// changes the secondary-index sort key is rewritten in the same UpdateItem so
// status-ordered queries stay consistent.
func (s *Store) UpdateTask(ctx context.Context, tenantID, taskID string, patch domain.TaskPatch, now string) (domain.Task, error) {
	sets := []string{"#updated_at = :updated_at"}
	names := map[string]string{"#updated_at": "updated_at"}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: now},
	}
	add := func(field, value string) {
		ph := "#" + field
		sets = append(sets, fmt.Sprintf("%s = :%s", ph, field))
		names[ph] = field
		values[":"+field] = &types.AttributeValueMemberS{Value: value}
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
		sets = append(sets, "GSI1SK = :gsi1sk")
		values[":gsi1sk"] = &types.AttributeValueMemberS{Value: TaskGSISK(*patch.Status, now)}
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.AssignedTo != nil {
		add("assigned_to", *patch.AssignedTo)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       taskKey(tenantID, taskID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	var item taskItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return domain.Task{}, fmt.Errorf("unmarshal updated task: %w", err)
	}
	return item.Task, nil
}

// DeleteTask hard-deletes; there is no tombstone.
func (s *Store) DeleteTask(ctx context.Context, tenantID, taskID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       taskKey(tenantID, taskID),
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

type ListOptions struct {
	Status   string
	Limit    int32
	StartKey map[string]types.AttributeValue
}

type ListResult struct {
	Tasks   []domain.Task
	HasMore bool
	// LastKey resumes the query when HasMore is set.
	LastKey map[string]types.AttributeValue
}

// ListTasks queries the tenant partition newest-first. With a status filter
// it queries the secondary index under the STATUS# prefix instead. Items of
// other entity kinds sharing the partition are filtered out.
func (s *Store) ListTasks(ctx context.Context, tenantID string, opts ListOptions) (ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
			":prefix": &types.AttributeValueMemberS{Value: TaskSKPrefix},
		},
		Limit:             aws.Int32(limit),
		ScanIndexForward:  aws.Bool(false),
		ExclusiveStartKey: opts.StartKey,
	}
	if opts.Status != "" {
		in.IndexName = aws.String(s.gsi)
		in.KeyConditionExpression = aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: TenantPK(tenantID)},
			":prefix": &types.AttributeValueMemberS{Value: StatusPrefix(opts.Status)},
		}
	}

	out, err := s.client.Query(ctx, in)
	if err != nil {
		return ListResult{}, fmt.Errorf("query tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(out.Items))
	for _, raw := range out.Items {
		var item taskItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return ListResult{}, fmt.Errorf("unmarshal task item: %w", err)
		}
		if item.EntityType != domain.EntityTask {
			continue
		}
		tasks = append(tasks, item.Task)
	}

	res := ListResult{Tasks: tasks}
	if len(out.LastEvaluatedKey) > 0 {
		res.HasMore = true
		res.LastKey = out.LastEvaluatedKey
	}
	return res, nil
}
