package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "orders-test"

// mockDynamo is an in-memory double for the orders table, keyed by order_id.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pkOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["order_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing order_id")
	}
	return v.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.items[pk]

	if params.ConditionExpression != nil {
		cond := *params.ConditionExpression
		switch {
		case strings.HasPrefix(cond, "attribute_exists("):
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case cond == "delivery_status = :expected":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			curr, _ := item["delivery_status"].(*types.AttributeValueMemberS)
			want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			if curr == nil || curr.Value != want.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		return nil, errors.New("item not found")
	}

	applySet(item, *params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	m.items[pk] = item

	out := &dyn.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		cp := map[string]types.AttributeValue{}
		for k, v := range item {
			cp[k] = v
		}
		out.Attributes = cp
	}
	return out, nil
}

// applySet handles the SET grammar the store issues, splitting on top-level
// commas so if_not_exists(attr, :val) stays intact.
func applySet(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	expr = strings.TrimPrefix(expr, "SET ")
	var parts []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(expr[start:]))

	for _, part := range parts {
		kv := strings.SplitN(part, " = ", 2)
		name := strings.TrimSpace(kv[0])
		if resolved, ok := names[name]; ok {
			name = resolved
		}
		rhs := strings.TrimSpace(kv[1])
		if strings.HasPrefix(rhs, "if_not_exists(") {
			inner := strings.TrimSuffix(strings.TrimPrefix(rhs, "if_not_exists("), ")")
			args := strings.SplitN(inner, ",", 2)
			attr := strings.TrimSpace(args[0])
			if _, ok := item[attr]; !ok {
				item[attr] = values[strings.TrimSpace(args[1])]
			}
			continue
		}
		item[name] = values[rhs]
	}
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.items, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if params.FilterExpression != nil {
			kv := strings.SplitN(*params.FilterExpression, " = ", 2)
			want := params.ExpressionAttributeValues[strings.TrimSpace(kv[1])].(*types.AttributeValueMemberS)
			got, ok := item[strings.TrimSpace(kv[0])].(*types.AttributeValueMemberS)
			if !ok || got.Value != want.Value {
				continue
			}
		}
		items = append(items, item)
	}
	return &dyn.ScanOutput{Items: items}, nil
}

func newTestStore() (*Store, *mockDynamo) {
	db := newMockDynamo()
	store := NewStore(db, testTable)
	store.nowFunc = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return store, db
}

func seed(t *testing.T, db *mockDynamo, o Order) {
	t.Helper()
	item, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	db.items[o.OrderID] = item
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	err := store.Create(ctx, Order{
		OrderID:     "ord_1",
		BookID:      "bk_1",
		BookTitle:   "Dune",
		ReaderEmail: "reader@example.com",
		Price:       20,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "ord_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", got.BookTitle)
	assert.Equal(t, PaymentUnpaid, got.PaymentStatus)
	assert.Empty(t, got.TrackingID)
	assert.False(t, got.CreatedAt.IsZero())

	got, err = store.Get(ctx, "ord_missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarkPaid(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", BookTitle: "Dune", ReaderEmail: "reader@example.com", PaymentStatus: PaymentUnpaid})

	updated, err := store.MarkPaid(ctx, "ord_1", "1700000000000-1234")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, DeliveryPending, updated.DeliveryStatus)
	assert.Equal(t, "1700000000000-1234", updated.TrackingID)
}

func TestMarkPaidKeepsFirstTrackingID(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", PaymentStatus: PaymentUnpaid})

	first, err := store.MarkPaid(ctx, "ord_1", "1700000000000-1111")
	require.NoError(t, err)

	// A racing duplicate confirmation re-applies the transition with its own
	// candidate id; the stored id must not change.
	second, err := store.MarkPaid(ctx, "ord_1", "1700000000999-2222")
	require.NoError(t, err)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, "1700000000000-1111", second.TrackingID)
}

func TestMarkPaidMissingOrder(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.MarkPaid(context.Background(), "ord_missing", "1700000000000-1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeliveryStatus(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryPending})

	err := store.UpdateDeliveryStatus(ctx, "ord_1", DeliveryPending, DeliveryProcessing)
	require.NoError(t, err)

	got, err := store.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, DeliveryProcessing, got.DeliveryStatus)

	// Replaying the same transition loses the condition.
	err = store.UpdateDeliveryStatus(ctx, "ord_1", DeliveryPending, DeliveryProcessing)
	assert.ErrorIs(t, err, ErrStatusMismatch)
}

func TestPatchStripsProtectedFields(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", PaymentStatus: PaymentUnpaid, Address: "old street"})

	err := store.Patch(ctx, "ord_1", map[string]interface{}{
		"address":        "new street",
		"payment_status": PaymentPaid,
		"tracking_id":    "9999999999999-9999",
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "new street", got.Address)
	assert.Equal(t, PaymentUnpaid, got.PaymentStatus)
	assert.Empty(t, got.TrackingID)
}

func TestPatchMissingOrder(t *testing.T) {
	store, _ := newTestStore()

	err := store.Patch(context.Background(), "ord_missing", map[string]interface{}{"address": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByReader(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", ReaderEmail: "a@example.com"})
	seed(t, db, Order{OrderID: "ord_2", ReaderEmail: "a@example.com"})
	seed(t, db, Order{OrderID: "ord_3", ReaderEmail: "b@example.com"})

	got, err := store.ListByReader(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatsByLibrarian(t *testing.T) {
	store, db := newTestStore()
	ctx := context.Background()
	seed(t, db, Order{OrderID: "ord_1", LibrarianEmail: "lib@example.com", PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryPending})
	seed(t, db, Order{OrderID: "ord_2", LibrarianEmail: "lib@example.com", PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryDelivered})
	seed(t, db, Order{OrderID: "ord_3", LibrarianEmail: "lib@example.com", PaymentStatus: PaymentUnpaid})
	seed(t, db, Order{OrderID: "ord_4", LibrarianEmail: "other@example.com", PaymentStatus: PaymentUnpaid})

	stats, err := store.StatsByLibrarian(ctx, "lib@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PaymentStatus[PaymentPaid])
	assert.Equal(t, 1, stats.PaymentStatus[PaymentUnpaid])
	assert.Equal(t, 1, stats.DeliveryStatus[DeliveryPending])
	assert.Equal(t, 1, stats.DeliveryStatus[DeliveryDelivered])
}
