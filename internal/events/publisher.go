// Package events publishes domain events to the shared bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"taskline/internal/domain"
)

const (
	// Source tags every event this system emits; consumers ignore others.
	Source = "saas.tasks"

	DetailTypeTaskCreated = "Task Created"
)

// BusAPI is the subset of the EventBridge client the publisher uses.
type BusAPI interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

type Publisher struct {
	Client  BusAPI
	BusName string
	Now     func() time.Time
}

// PublishTaskCreated emits the creation event. Callers treat a failure as a
// warning: the task write has already committed and downstream projections
// are eventually consistent, not atomic.
func (p *Publisher) PublishTaskCreated(ctx context.Context, detail domain.TaskCreated) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal event detail: %w", err)
	}
	out, err := p.Client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				Source:       aws.String(Source),
				DetailType:   aws.String(DetailTypeTaskCreated),
				Detail:       aws.String(string(data)),
				EventBusName: aws.String(p.BusName),
				Time:         aws.Time(p.now()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("event bus rejected %d entries", out.FailedEntryCount)
	}
	return nil
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
