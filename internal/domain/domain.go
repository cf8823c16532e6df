package domain

// Task statuses. The secondary index sort key embeds the status, so renaming
// a value is a data migration, not a code change.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusCancelled  = "CANCELLED"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Entity type discriminators. Every item in the shared table carries one and
// every read that can see sibling entities must check it.
const (
	EntityTask          = "TASK"
	EntityAnalytics     = "ANALYTICS"
	EntityMetrics       = "METRICS"
	EntityNotification  = "NOTIFICATION"
	EntityAudit         = "AUDIT"
	EntityTenantSetting = "TENANT_SETTINGS"
)

type Task struct {
	TaskID      string `json:"task_id" dynamodbav:"task_id"`
	TenantID    string `json:"tenant_id" dynamodbav:"tenant_id"`
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Status      string `json:"status" dynamodbav:"status"`
	Priority    string `json:"priority" dynamodbav:"priority"`
	AssignedTo  string `json:"assigned_to" dynamodbav:"assigned_to"`
	CreatedBy   string `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   string `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   string `json:"updated_at" dynamodbav:"updated_at"`
}

// TaskPatch carries a partial update. Nil fields keep their prior values.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
}

// TaskCreated is the event detail published on the bus after a successful
// create. Consumers must tolerate extra fields.
type TaskCreated struct {
	TaskID    string `json:"task_id"`
	TenantID  string `json:"tenant_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

type AnalyticsRecord struct {
	EventType string `json:"event_type" dynamodbav:"event_type"`
	TaskID    string `json:"task_id" dynamodbav:"task_id"`
	TenantID  string `json:"tenant_id" dynamodbav:"tenant_id"`
	CreatedBy string `json:"created_by" dynamodbav:"created_by"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
}

type MetricsRecord struct {
	TenantID        string `json:"tenant_id" dynamodbav:"tenant_id"`
	TotalTasks      int64  `json:"total_tasks" dynamodbav:"total_tasks"`
	TasksThisMonth  int64  `json:"tasks_this_month" dynamodbav:"tasks_this_month"`
	LastTaskCreated string `json:"last_task_created" dynamodbav:"last_task_created"`
}

type NotificationRecord struct {
	NotificationType string   `json:"notification_type" dynamodbav:"notification_type"`
	TaskID           string   `json:"task_id" dynamodbav:"task_id"`
	TenantID         string   `json:"tenant_id" dynamodbav:"tenant_id"`
	Title            string   `json:"title" dynamodbav:"title"`
	CreatedBy        string   `json:"created_by" dynamodbav:"created_by"`
	Status           string   `json:"status" dynamodbav:"status"`
	Channels         []string `json:"channels" dynamodbav:"channels"`
}

type AuditRecord struct {
	Action       string            `json:"action" dynamodbav:"action"`
	ResourceType string            `json:"resource_type" dynamodbav:"resource_type"`
	ResourceID   string            `json:"resource_id" dynamodbav:"resource_id"`
	TenantID     string            `json:"tenant_id" dynamodbav:"tenant_id"`
	UserID       string            `json:"user_id" dynamodbav:"user_id"`
	Timestamp    string            `json:"timestamp" dynamodbav:"timestamp"`
	Details      map[string]string `json:"details" dynamodbav:"details"`
}

// NotificationSettings is an optional per-tenant record selecting delivery
// channels for fan-out notifications.
type NotificationSettings struct {
	TenantID string   `json:"tenant_id" dynamodbav:"tenant_id"`
	Channels []string `json:"channels" dynamodbav:"channels"`
}

// DefaultChannels applies when a tenant has no settings record.
var DefaultChannels = []string{"email", "slack"}
