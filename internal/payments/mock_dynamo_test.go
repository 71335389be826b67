package payments

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory double good enough for the expressions the
// stores issue. It stores items per table: table -> pk value -> item.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// hideLedgerReads makes GetItem on the payments table miss, simulating
	// the window where a concurrent confirmation slipped past the pre-check.
	hideLedgerReads bool
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

var pkAttrs = []string{"session_id", "order_id", "book_id", "user_id", "rating_id", "entry_id"}

func itemPK(item map[string]types.AttributeValue) (string, string, error) {
	for _, attr := range pkAttrs {
		if v, ok := item[attr]; ok {
			return attr, v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	return "", "", errors.New("no known primary key in item")
}

func (m *mockDynamo) ensure(tbl string) map[string]map[string]types.AttributeValue {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
	return m.tables[tbl]
}

func (m *mockDynamo) seed(tbl string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pk, err := itemPK(item)
	if err != nil {
		panic(err)
	}
	m.ensure(tbl)[pk] = item
}

func (m *mockDynamo) count(tbl string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ensure(tbl))
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensure(*params.TableName)
	_, pk, err := itemPK(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists(") {
		if _, exists := table[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	table[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideLedgerReads {
		if _, isLedger := params.Key["session_id"]; isLedger {
			return &dyn.GetItemOutput{}, nil
		}
	}
	table := m.ensure(*params.TableName)
	_, pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := table[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensure(*params.TableName)
	_, pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := table[pk]

	if params.ConditionExpression != nil {
		cond := *params.ConditionExpression
		switch {
		case strings.HasPrefix(cond, "attribute_exists("):
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case strings.Contains(cond, " = :expected"):
			attr := strings.TrimSpace(strings.Split(cond, "=")[0])
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			curr, ok := item[attr].(*types.AttributeValueMemberS)
			want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			if !ok || curr.Value != want.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		return nil, errors.New("item not found")
	}

	applySet(item, *params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	table[pk] = item

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

// splitAssignments splits a SET clause list on commas, ignoring commas
// inside function calls such as if_not_exists(attr, :val).
func splitAssignments(expr string) []string {
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
	return parts
}

// applySet supports the SET grammar the stores use, including
// if_not_exists(attr, :val).
func applySet(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	expr = strings.TrimPrefix(expr, "SET ")
	for _, part := range splitAssignments(expr) {
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
			valKey := strings.TrimSpace(args[1])
			if _, ok := item[attr]; !ok {
				item[attr] = values[valKey]
			}
			continue
		}
		item[name] = values[rhs]
	}
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensure(*params.TableName)
	_, pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	delete(table, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.ensure(*params.TableName)

	var items []map[string]types.AttributeValue
	for _, item := range table {
		if matchFilter(item, params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			items = append(items, item)
		}
	}
	return &dyn.ScanOutput{Items: items}, nil
}

// matchFilter supports the single-equality filters the stores use.
func matchFilter(item map[string]types.AttributeValue, filter *string, names map[string]string, values map[string]types.AttributeValue) bool {
	if filter == nil {
		return true
	}
	kv := strings.SplitN(*filter, " = ", 2)
	name := strings.TrimSpace(kv[0])
	if resolved, ok := names[name]; ok {
		name = resolved
	}
	want, ok := values[strings.TrimSpace(kv[1])].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	got, ok := item[name].(*types.AttributeValueMemberS)
	return ok && got.Value == want.Value
}
