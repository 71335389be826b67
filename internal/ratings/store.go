package ratings

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/booklend/go-booklend-backend/internal/awsx"
)

// Rating represents a reader's review of a book.
type Rating struct {
	RatingID    string    `dynamodbav:"rating_id"` // PK
	BookID      string    `dynamodbav:"book_id"`
	ReaderEmail string    `dynamodbav:"reader_email"`
	Score       int       `dynamodbav:"score"` // 1..5
	Comment     string    `dynamodbav:"comment,omitempty"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
}

// Store encapsulates operations on the ratings table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new ratings Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Add persists a new rating.
func (s *Store) Add(ctx context.Context, r Rating) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.nowFunc()
	}
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put rating: %w", err)
	}
	return nil
}

// ListByBook returns all ratings left on a book.
func (s *Store) ListByBook(ctx context.Context, bookID string) ([]Rating, error) {
	filter := "book_id = :id"
	var out []Rating
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:        &s.tableName,
			FilterExpression: &filter,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: bookID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan ratings: %w", err)
		}
		var page []Rating
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal ratings: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}
