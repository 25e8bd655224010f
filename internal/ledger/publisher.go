// internal/ledger/publisher.go
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	commonaws "vendor-matching/internal/common/aws"
	apperrors "vendor-matching/internal/common/errors"
	"vendor-matching/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const selectionEventType = "vendor.selection.recorded"

type selectionEvent struct {
	EventType string           `json:"eventType"`
	Selection models.Selection `json:"selection"`
}

// SNSPublisher sends a selection event to an SNS topic.
type SNSPublisher struct {
	client   *commonaws.SNSClient
	topicARN string
}

func NewSNSPublisher(client *commonaws.SNSClient, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) PublishSelection(ctx context.Context, sel models.Selection) error {
	body, err := json.Marshal(selectionEvent{EventType: selectionEventType, Selection: sel})
	if err != nil {
		return fmt.Errorf("encode selection event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(selectionEventType)},
			"rfqId":     {DataType: aws.String("String"), StringValue: aws.String(sel.RFQID)},
			"demandKey": {DataType: aws.String("String"), StringValue: aws.String(sel.DemandKey)},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	return nil
}
