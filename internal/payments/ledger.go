package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/booklend/go-booklend-backend/internal/awsx"
)

// Ledger is the append-only record of confirmed payments. The storage layer
// enforces session-id uniqueness; that constraint, not the application-level
// pre-check, is what makes confirmation idempotent under races.
type Ledger struct {
	client    awsx.DynamoDBAPI
	tableName string
}

// NewLedger returns a Ledger bound to the payments table.
func NewLedger(client awsx.DynamoDBAPI, tableName string) *Ledger {
	return &Ledger{
		client:    client,
		tableName: tableName,
	}
}

// InsertIfAbsent writes the record unless one already exists for its session
// id. Returns (true, nil) when this call inserted, (false, nil) when a record
// already existed, and (false, err) on other failures.
func (l *Ledger) InsertIfAbsent(ctx context.Context, rec Record) (bool, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal payment record: %w", err)
	}

	condition := "attribute_not_exists(session_id)"
	_, err = l.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &l.tableName,
		Item:                item,
		ConditionExpression: &condition,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put payment record: %w", err)
	}
	return true, nil
}

// GetBySession fetches the payment record for a session. Returns (nil, nil)
// if none exists.
func (l *Ledger) GetBySession(ctx context.Context, sessionID string) (*Record, error) {
	out, err := l.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &l.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get payment record: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal payment record: %w", err)
	}
	return &rec, nil
}

// ListByEmail returns a reader's payment history.
func (l *Ledger) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	filter := "reader_email = :email"
	var out []Record
	var startKey map[string]types.AttributeValue
	for {
		resp, err := l.client.Scan(ctx, &dyn.ScanInput{
			TableName:        &l.tableName,
			FilterExpression: &filter,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan payment records: %w", err)
		}
		var page []Record
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal payment records: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}
