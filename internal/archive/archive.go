// Package archive mirrors audit records to write-once object storage for
// compliance retention.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"taskline/internal/domain"
)

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archive struct {
	Client ObjectAPI
	Bucket string
}

// Key partitions audit objects by tenant and year-month for retention
// policies. The timestamp is RFC 3339, so its first seven bytes are YYYY-MM.
func Key(tenantID, timestamp, taskID string) string {
	month := timestamp
	if len(month) > 7 {
		month = month[:7]
	}
	return fmt.Sprintf("audit-logs/%s/%s/%s.json", tenantID, month, taskID)
}

// PutAudit writes the encrypted audit object. The caller treats this write
// and the table write as jointly required for the audit step to succeed.
func (a *Archive) PutAudit(ctx context.Context, r domain.AuditRecord) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal audit object: %w", err)
	}
	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.Bucket),
		Key:                  aws.String(Key(r.TenantID, r.Timestamp, r.ResourceID)),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("put audit object: %w", err)
	}
	return nil
}
