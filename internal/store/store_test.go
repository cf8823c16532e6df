package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskline/internal/domain"
)

// fakeDynamo substitutes the DynamoDB client with per-call hooks.
type fakeDynamo struct {
	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteItem func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(in)
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItem(in)
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItem(in)
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(in)
}

func stringAttr(m map[string]types.AttributeValue, name string) string {
	s, ok := m[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}

func marshalTaskItem(t *testing.T, task domain.Task) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(taskItem{
		PK:         TenantPK(task.TenantID),
		SK:         TaskSK(task.TaskID),
		GSI1PK:     TenantPK(task.TenantID),
		GSI1SK:     TaskGSISK(task.Status, task.UpdatedAt),
		EntityType: domain.EntityTask,
		Task:       task,
	})
	if err != nil {
		t.Fatalf("marshal task item: %v", err)
	}
	return item
}

func TestPutTaskKeys(t *testing.T) {
	var captured *dynamodb.PutItemInput
	s := New(&fakeDynamo{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			captured = in
			return &dynamodb.PutItemOutput{}, nil
		},
	}, "tasks", "GSI1")

	err := s.PutTask(context.Background(), domain.Task{
		TaskID:    "t-1",
		TenantID:  "tenant-a",
		Title:     "hello",
		Status:    domain.StatusOpen,
		Priority:  domain.PriorityMedium,
		UpdatedAt: "2026-08-23T10:00:00.000Z",
	})
	if err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if got := aws.ToString(captured.TableName); got != "tasks" {
		t.Errorf("table = %q, want tasks", got)
	}
	if got := stringAttr(captured.Item, "PK"); got != "TENANT#tenant-a" {
		t.Errorf("PK = %q", got)
	}
	if got := stringAttr(captured.Item, "SK"); got != "TASK#t-1" {
		t.Errorf("SK = %q", got)
	}
	if got := stringAttr(captured.Item, "GSI1SK"); got != "STATUS#OPEN#2026-08-23T10:00:00.000Z" {
		t.Errorf("GSI1SK = %q", got)
	}
	if got := stringAttr(captured.Item, "entity_type"); got != domain.EntityTask {
		t.Errorf("entity_type = %q", got)
	}
}

func TestGetTask(t *testing.T) {
	want := domain.Task{
		TaskID:   "t-1",
		TenantID: "tenant-a",
		Title:    "hello",
		Status:   domain.StatusOpen,
	}
	s := New(&fakeDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			if got := stringAttr(in.Key, "PK"); got != "TENANT#tenant-a" {
				t.Errorf("PK = %q", got)
			}
			if got := stringAttr(in.Key, "SK"); got != "TASK#t-1" {
				t.Errorf("SK = %q", got)
			}
			return &dynamodb.GetItemOutput{Item: marshalTaskItem(t, want)}, nil
		},
	}, "tasks", "GSI1")

	got, err := s.GetTask(context.Background(), "tenant-a", "t-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got != want {
		t.Errorf("task = %+v, want %+v", got, want)
	}
}

func TestGetTaskMissing(t *testing.T) {
	s := New(&fakeDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}, "tasks", "GSI1")

	_, err := s.GetTask(context.Background(), "tenant-a", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTaskWrongEntityType(t *testing.T) {
	s := New(&fakeDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				"PK":          &types.AttributeValueMemberS{Value: "TENANT#tenant-a"},
				"SK":          &types.AttributeValueMemberS{Value: "METRICS#TASKS"},
				"entity_type": &types.AttributeValueMemberS{Value: domain.EntityMetrics},
			}}, nil
		},
	}, "tasks", "GSI1")

	_, err := s.GetTask(context.Background(), "tenant-a", "t-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for non-task entity", err)
	}
}

func TestUpdateTaskExpression(t *testing.T) {
	var captured *dynamodb.UpdateItemInput
	updated := domain.Task{TaskID: "t-1", TenantID: "tenant-a", Title: "new", Status: domain.StatusDone}
	s := New(&fakeDynamo{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			captured = in
			return &dynamodb.UpdateItemOutput{Attributes: marshalTaskItem(t, updated)}, nil
		},
	}, "tasks", "GSI1")

	now := "2026-08-23T12:00:00.000Z"
	patch := domain.TaskPatch{Title: strPtr("new"), Status: strPtr(domain.StatusDone)}
	got, err := s.UpdateTask(context.Background(), "tenant-a", "t-1", patch, now)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got != updated {
		t.Errorf("task = %+v, want %+v", got, updated)
	}

	expr := aws.ToString(captured.UpdateExpression)
	for _, want := range []string{"#updated_at = :updated_at", "#title = :title", "#status = :status", "GSI1SK = :gsi1sk"} {
		if !strings.Contains(expr, want) {
			t.Errorf("expression %q missing %q", expr, want)
		}
	}
	if strings.Contains(expr, "description") {
		t.Errorf("expression %q touches absent field", expr)
	}
	if got := stringAttr(captured.ExpressionAttributeValues, ":gsi1sk"); got != "STATUS#DONE#"+now {
		t.Errorf(":gsi1sk = %q", got)
	}
	if captured.ReturnValues != types.ReturnValueAllNew {
		t.Errorf("ReturnValues = %v, want ALL_NEW", captured.ReturnValues)
	}
}

func TestUpdateTaskWithoutStatusKeepsGSI(t *testing.T) {
	s := New(&fakeDynamo{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			if strings.Contains(aws.ToString(in.UpdateExpression), "GSI1SK") {
				t.Errorf("expression %q rewrites GSI1SK without a status change", aws.ToString(in.UpdateExpression))
			}
			return &dynamodb.UpdateItemOutput{Attributes: marshalTaskItem(t, domain.Task{TaskID: "t-1"})}, nil
		},
	}, "tasks", "GSI1")

	_, err := s.UpdateTask(context.Background(), "tenant-a", "t-1", domain.TaskPatch{Title: strPtr("x")}, "2026-08-23T12:00:00.000Z")
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
}

func TestListTasksDefaults(t *testing.T) {
	var captured *dynamodb.QueryInput
	s := New(&fakeDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			captured = in
			return &dynamodb.QueryOutput{}, nil
		},
	}, "tasks", "GSI1")

	if _, err := s.ListTasks(context.Background(), "tenant-a", ListOptions{}); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if captured.IndexName != nil {
		t.Errorf("unfiltered list should query the base table, got index %q", aws.ToString(captured.IndexName))
	}
	if got := aws.ToInt32(captured.Limit); got != DefaultListLimit {
		t.Errorf("limit = %d, want %d", got, DefaultListLimit)
	}
	if aws.ToBool(captured.ScanIndexForward) {
		t.Error("expected newest-first ordering")
	}
	if got := stringAttr(captured.ExpressionAttributeValues, ":prefix"); got != TaskSKPrefix {
		t.Errorf(":prefix = %q", got)
	}
}

func TestListTasksStatusFilterUsesIndex(t *testing.T) {
	var captured *dynamodb.QueryInput
	s := New(&fakeDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			captured = in
			return &dynamodb.QueryOutput{}, nil
		},
	}, "tasks", "GSI1")

	if _, err := s.ListTasks(context.Background(), "tenant-a", ListOptions{Status: domain.StatusOpen, Limit: 500}); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if got := aws.ToString(captured.IndexName); got != "GSI1" {
		t.Errorf("index = %q, want GSI1", got)
	}
	if got := stringAttr(captured.ExpressionAttributeValues, ":prefix"); got != "STATUS#OPEN#" {
		t.Errorf(":prefix = %q", got)
	}
	if got := aws.ToInt32(captured.Limit); got != MaxListLimit {
		t.Errorf("limit = %d, want clamp to %d", got, MaxListLimit)
	}
}

func TestListTasksFiltersOtherEntities(t *testing.T) {
	task := domain.Task{TaskID: "t-1", TenantID: "tenant-a", Title: "keep", Status: domain.StatusOpen}
	s := New(&fakeDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					marshalTaskItem(t, task),
					{
						"PK":          &types.AttributeValueMemberS{Value: "TENANT#tenant-a"},
						"SK":          &types.AttributeValueMemberS{Value: "METRICS#TASKS"},
						"entity_type": &types.AttributeValueMemberS{Value: domain.EntityMetrics},
					},
				},
				LastEvaluatedKey: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: "TENANT#tenant-a"},
					"SK": &types.AttributeValueMemberS{Value: "TASK#t-1"},
				},
			}, nil
		},
	}, "tasks", "GSI1")

	res, err := s.ListTasks(context.Background(), "tenant-a", ListOptions{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].TaskID != "t-1" {
		t.Fatalf("tasks = %+v, want just t-1", res.Tasks)
	}
	if !res.HasMore || res.LastKey == nil {
		t.Error("expected HasMore with a resume key")
	}
}

func strPtr(s string) *string { return &s }
