package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/dynamoutil"
)

// ErrNotFound is returned when a patch addresses a user that does not exist.
var ErrNotFound = errors.New("user not found")

// Store encapsulates operations on the users table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new users Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new user record.
func (s *Store) Create(ctx context.Context, u User) error {
	now := s.nowFunc()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// List returns every user record.
func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.scan(ctx, nil, nil, nil)
}

// ListByEmail returns the users registered under an email address.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]User, error) {
	filter := "email = :email"
	return s.scan(ctx, &filter, nil, map[string]types.AttributeValue{
		":email": &types.AttributeValueMemberS{Value: email},
	})
}

// ListByRole returns the users holding a role.
func (s *Store) ListByRole(ctx context.Context, role string) ([]User, error) {
	filter := "#r = :role"
	return s.scan(ctx, &filter, map[string]string{"#r": "role"}, map[string]types.AttributeValue{
		":role": &types.AttributeValueMemberS{Value: role},
	})
}

// GetByEmail fetches the first user registered under email. Returns (nil, nil) if none.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	matches, err := s.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Patch applies a field patch to the user with the given id.
func (s *Store) Patch(ctx context.Context, userID string, fields map[string]interface{}) error {
	expr, names, values, err := dynamoutil.BuildSetExpression(fields)
	if err != nil {
		return err
	}
	return s.update(ctx, map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}, "attribute_exists(user_id)", expr, names, values)
}

// PatchByEmail applies a field patch to every user registered under email.
func (s *Store) PatchByEmail(ctx context.Context, email string, fields map[string]interface{}) (int, error) {
	matches, err := s.ListByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	patched := 0
	for _, u := range matches {
		if err := s.Patch(ctx, u.UserID, fields); err != nil {
			return patched, err
		}
		patched++
	}
	return patched, nil
}

// RoleStats counts users per role.
func (s *Store) RoleStats(ctx context.Context) (map[string]int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]int{}
	for _, u := range all {
		stats[u.Role]++
	}
	return stats, nil
}

func (s *Store) scan(ctx context.Context, filter *string, names map[string]string, values map[string]types.AttributeValue) ([]User, error) {
	var out []User
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
			return nil, fmt.Errorf("scan users: %w", err)
		}
		var page []User
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal users: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

func (s *Store) update(ctx context.Context, key map[string]types.AttributeValue, condition, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	expr += ", updated_at = :__ua"
	values[":__ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)}
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       key,
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
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
