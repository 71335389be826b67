package orders

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

// ErrNotFound is returned when a write addresses an order id that does not exist.
var ErrNotFound = errors.New("order not found")

// ErrStatusMismatch is returned when a conditional delivery transition loses
// against the current state.
var ErrStatusMismatch = errors.New("delivery status mismatch")

// Store encapsulates operations on the orders table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order. Orders are born unpaid with no tracking id.
func (s *Store) Create(ctx context.Context, o Order) error {
	now := s.nowFunc()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentUnpaid
	}

	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// List returns every order.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	return s.scan(ctx, nil, nil)
}

// ListByReader returns the orders placed by a reader.
func (s *Store) ListByReader(ctx context.Context, email string) ([]Order, error) {
	filter := "reader_email = :email"
	return s.scan(ctx, &filter, map[string]types.AttributeValue{
		":email": &types.AttributeValueMemberS{Value: email},
	})
}

// ListByLibrarian returns the orders addressed to a librarian.
func (s *Store) ListByLibrarian(ctx context.Context, email string) ([]Order, error) {
	filter := "librarian_email = :email"
	return s.scan(ctx, &filter, map[string]types.AttributeValue{
		":email": &types.AttributeValueMemberS{Value: email},
	})
}

// Delete removes an order.
func (s *Store) Delete(ctx context.Context, orderID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// Patch applies a field patch to an existing order. The identity and
// payment-owned fields are not patchable through this path.
func (s *Store) Patch(ctx context.Context, orderID string, fields map[string]interface{}) error {
	delete(fields, "order_id")
	delete(fields, "tracking_id")
	delete(fields, "payment_status")

	expr, names, values, err := dynamoutil.BuildSetExpression(fields)
	if err != nil {
		return err
	}
	expr += ", updated_at = :__ua"
	values[":__ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)}

	condition := "attribute_exists(order_id)"
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
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
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// MarkPaid transitions an order to paid, seeds the delivery state and assigns
// the tracking id. if_not_exists keeps the first tracking id when two
// confirmations race: the update is idempotent in its final values.
// Returns the updated order, or ErrNotFound when the order id does not exist.
func (s *Store) MarkPaid(ctx context.Context, orderID, trackingID string) (*Order, error) {
	now := s.nowFunc()
	updateExpr := "SET payment_status = :paid, delivery_status = :pending, tracking_id = if_not_exists(tracking_id, :tid), updated_at = :ua"
	condition := "attribute_exists(order_id)"

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    &updateExpr,
		ConditionExpression: &condition,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":paid":    &types.AttributeValueMemberS{Value: PaymentPaid},
			":pending": &types.AttributeValueMemberS{Value: DeliveryPending},
			":tid":     &types.AttributeValueMemberS{Value: trackingID},
			":ua":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &o, nil
}

// UpdateDeliveryStatus conditionally moves delivery state expected -> next.
// Returns ErrStatusMismatch if the order is not in the expected state.
func (s *Store) UpdateDeliveryStatus(ctx context.Context, orderID, expected, next string) error {
	now := s.nowFunc()
	updateExpr := "SET delivery_status = :next, updated_at = :ua"
	condition := "delivery_status = :expected"

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    &updateExpr,
		ConditionExpression: &condition,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: next},
			":expected": &types.AttributeValueMemberS{Value: expected},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update delivery status: %w", err)
	}
	return nil
}

// DeliveryStats counts orders per delivery status.
func (s *Store) DeliveryStats(ctx context.Context) (map[string]int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]int{}
	for _, o := range all {
		stats[o.DeliveryStatus]++
	}
	return stats, nil
}

// StatsByLibrarian facets a librarian's orders by delivery and payment status.
func (s *Store) StatsByLibrarian(ctx context.Context, email string) (*StatusStats, error) {
	matched, err := s.ListByLibrarian(ctx, email)
	if err != nil {
		return nil, err
	}
	return facet(matched), nil
}

// StatsByReader facets a reader's orders by delivery and payment status.
func (s *Store) StatsByReader(ctx context.Context, email string) (*StatusStats, error) {
	matched, err := s.ListByReader(ctx, email)
	if err != nil {
		return nil, err
	}
	return facet(matched), nil
}

func facet(os []Order) *StatusStats {
	stats := &StatusStats{
		DeliveryStatus: map[string]int{},
		PaymentStatus:  map[string]int{},
	}
	for _, o := range os {
		stats.DeliveryStatus[o.DeliveryStatus]++
		stats.PaymentStatus[o.PaymentStatus]++
	}
	return stats
}

func (s *Store) scan(ctx context.Context, filter *string, values map[string]types.AttributeValue) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                 &s.tableName,
			FilterExpression:          filter,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		var page []Order
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, page...)
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}
