package books

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/dynamoutil"
)

// ErrNotFound is returned for operations addressing a missing book.
var ErrNotFound = errors.New("book not found")

// recentLimit matches the landing page carousel size.
const recentLimit = 6

// Store encapsulates operations on the books table. When a cache is attached,
// point reads and the recent listing go through it; writes invalidate.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	cache     *Cache
	nowFunc   func() time.Time
}

// NewStore creates a new books Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// WithCache attaches a read-through cache. Cache failures degrade to the
// table, never to the caller.
func (s *Store) WithCache(cache *Cache) *Store {
	s.cache = cache
	return s
}

// Create persists a new catalog record.
func (s *Store) Create(ctx context.Context, b Book) error {
	now := s.nowFunc()
	if b.AddedAt.IsZero() {
		b.AddedAt = now
	}
	b.UpdatedAt = now

	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put book: %w", err)
	}
	s.invalidate(ctx, b.BookID)
	return nil
}

// Get fetches a book by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, bookID string) (*Book, error) {
	if s.cache != nil {
		if b, ok := s.cache.GetBook(ctx, bookID); ok {
			return b, nil
		}
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: bookID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var b Book
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}
	if s.cache != nil {
		s.cache.SetBook(ctx, &b)
	}
	return &b, nil
}

// List returns the whole catalog.
func (s *Store) List(ctx context.Context) ([]Book, error) {
	return s.scan(ctx, nil, nil, nil)
}

// Recent returns the newest published books, newest first.
func (s *Store) Recent(ctx context.Context) ([]Book, error) {
	if s.cache != nil {
		if bs, ok := s.cache.GetRecent(ctx); ok {
			return bs, nil
		}
	}
	filter := "situation = :pub"
	published, err := s.scan(ctx, &filter, nil, map[string]types.AttributeValue{
		":pub": &types.AttributeValueMemberS{Value: SituationPublished},
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].AddedAt.After(published[j].AddedAt)
	})
	if len(published) > recentLimit {
		published = published[:recentLimit]
	}
	if s.cache != nil {
		s.cache.SetRecent(ctx, published)
	}
	return published, nil
}

// Search returns books whose title contains the search text, case-insensitive.
// DynamoDB contains() is case-sensitive, so matching happens here.
func (s *Store) Search(ctx context.Context, searchText string) ([]Book, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(searchText)
	var out []Book
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListByLibrarian returns the books a librarian manages.
func (s *Store) ListByLibrarian(ctx context.Context, email string) ([]Book, error) {
	filter := "librarian_email = :email"
	return s.scan(ctx, &filter, nil, map[string]types.AttributeValue{
		":email": &types.AttributeValueMemberS{Value: email},
	})
}

// Patch applies a field patch to an existing book.
func (s *Store) Patch(ctx context.Context, bookID string, fields map[string]interface{}) error {
	expr, names, values, err := dynamoutil.BuildSetExpression(fields)
	if err != nil {
		return err
	}
	expr += ", updated_at = :__ua"
	values[":__ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)}

	condition := "attribute_exists(book_id)"
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: bookID},
		},
		UpdateExpression:          &expr,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("update book: %w", err)
	}
	s.invalidate(ctx, bookID)
	return nil
}

// Delete removes a book from the catalog.
func (s *Store) Delete(ctx context.Context, bookID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: bookID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.invalidate(ctx, bookID)
	return nil
}

func (s *Store) invalidate(ctx context.Context, bookID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, bookID)
	}
}

func (s *Store) scan(ctx context.Context, filter *string, names map[string]string, values map[string]types.AttributeValue) ([]Book, error) {
	var out []Book
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                 &s.tableName,
			FilterExpression:          filter,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan books: %w", err)
		}
		var page []Book
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal books: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}
