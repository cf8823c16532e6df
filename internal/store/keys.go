package store

import "fmt"

// Key builders for the shared single-table layout. All entity kinds are
// co-located under the tenant partition and disambiguated by SK prefix plus
// the entity_type attribute. These prefixes are storage format; changing one
// breaks compatibility with existing tables.

func TenantPK(tenantID string) string { return fmt.Sprintf("TENANT#%s", tenantID) }

func TaskSK(taskID string) string { return fmt.Sprintf("TASK#%s", taskID) }

const TaskSKPrefix = "TASK#"

// TaskGSISK orders tasks by status then recency on the secondary index.
func TaskGSISK(status, updatedAt string) string {
	return fmt.Sprintf("STATUS#%s#%s", status, updatedAt)
}

func StatusPrefix(status string) string { return fmt.Sprintf("STATUS#%s#", status) }

func AnalyticsSK(createdAt, taskID string) string {
	return fmt.Sprintf("ANALYTICS#%s#%s", createdAt, taskID)
}

func AnalyticsGSIPK(tenantID string) string { return fmt.Sprintf("ANALYTICS#%s", tenantID) }

func AuditSK(ts, taskID string) string { return fmt.Sprintf("AUDIT#%s#%s", ts, taskID) }

func AuditGSIPK(tenantID string) string { return fmt.Sprintf("AUDIT#%s", tenantID) }

const AuditSKPrefix = "AUDIT#"

func NotificationSK(ts, taskID string) string {
	return fmt.Sprintf("NOTIFICATION#%s#%s", ts, taskID)
}

// MetricsSK is fixed: one counter item per tenant.
const MetricsSK = "METRICS#TASKS"

// NotificationSettingsSK is fixed: one optional settings item per tenant.
const NotificationSettingsSK = "SETTINGS#NOTIFICATIONS"
