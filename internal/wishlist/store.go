package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/booklend/go-booklend-backend/internal/awsx"
)

// Entry represents a wishlist row in the wishlist table.
type Entry struct {
	EntryID     string    `dynamodbav:"entry_id"` // PK
	BookID      string    `dynamodbav:"book_id"`
	BookTitle   string    `dynamodbav:"book_title"`
	ReaderEmail string    `dynamodbav:"reader_email"`
	AddedAt     time.Time `dynamodbav:"added_at"`
}

// Store encapsulates operations on the wishlist table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new wishlist Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Add persists a wishlist entry.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.AddedAt.IsZero() {
		e.AddedAt = s.nowFunc()
	}
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal wishlist entry: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put wishlist entry: %w", err)
	}
	return nil
}

// ListByReader returns a reader's wishlist.
func (s *Store) ListByReader(ctx context.Context, email string) ([]Entry, error) {
	filter := "reader_email = :email"
	var out []Entry
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:        &s.tableName,
			FilterExpression: &filter,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		var page []Entry
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal wishlist: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}
