package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/levijcl/Wei-sub002/internal/audit"
)

// DynamoAuditStore archives audit records in DynamoDB, partitioned by
// aggregate so a single aggregate's trail is one cheap query. A fixed GSI1
// partition supports the recent-records scan.
type DynamoAuditStore struct {
	client    *dynamodb.Client
	tableName string
}

type dynamoAuditRecord struct {
	AggregateKey   string `dynamodbav:"aggregate_key"` // "<type>#<id>"
	RecordID       string `dynamodbav:"record_id"`
	AggregateType  string `dynamodbav:"aggregate_type"`
	AggregateID    string `dynamodbav:"aggregate_id"`
	EventName      string `dynamodbav:"event_name"`
	EventTimestamp string `dynamodbav:"event_timestamp"`
	Metadata       string `dynamodbav:"metadata"`
	Payload        string `dynamodbav:"payload"`
	CreatedAt      string `dynamodbav:"created_at"`
	GSI1PK         string `dynamodbav:"gsi1pk"`
}

func NewDynamoAuditStore(client *dynamodb.Client, tableName string) *DynamoAuditStore {
	return &DynamoAuditStore{client: client, tableName: tableName}
}

func (s *DynamoAuditStore) SaveRecord(ctx context.Context, r *audit.Record) error {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	item := dynamoAuditRecord{
		AggregateKey:   r.AggregateType + "#" + r.AggregateID,
		RecordID:       r.RecordID,
		AggregateType:  r.AggregateType,
		AggregateID:    r.AggregateID,
		EventName:      r.EventName,
		EventTimestamp: r.EventTimestamp.Format(time.RFC3339Nano),
		Metadata:       string(metadata),
		Payload:        string(r.Payload),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339Nano),
		GSI1PK:         "AUDIT",
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
		// Same record id delivered twice must not produce two rows.
		ConditionExpression: aws.String("attribute_not_exists(record_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to put audit record: %w", err)
	}
	return nil
}

func (s *DynamoAuditStore) ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]audit.Record, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("aggregate_key = :ak"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ak": &types.AttributeValueMemberS{Value: aggregateType + "#" + aggregateID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return s.unmarshalRecords(result.Items)
}

func (s *DynamoAuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "AUDIT"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	return s.unmarshalRecords(result.Items)
}

func (s *DynamoAuditStore) unmarshalRecords(items []map[string]types.AttributeValue) ([]audit.Record, error) {
	records := make([]audit.Record, 0, len(items))
	for _, item := range items {
		var dr dynamoAuditRecord
		if err := attributevalue.UnmarshalMap(item, &dr); err != nil {
			continue
		}

		eventTimestamp, _ := time.Parse(time.RFC3339Nano, dr.EventTimestamp)
		createdAt, _ := time.Parse(time.RFC3339Nano, dr.CreatedAt)

		r := audit.Record{
			RecordID:       dr.RecordID,
			AggregateType:  dr.AggregateType,
			AggregateID:    dr.AggregateID,
			EventName:      dr.EventName,
			EventTimestamp: eventTimestamp,
			Payload:        json.RawMessage(dr.Payload),
			CreatedAt:      createdAt,
		}
		if err := json.Unmarshal([]byte(dr.Metadata), &r.Metadata); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
