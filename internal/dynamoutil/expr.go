package dynamoutil

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BuildSetExpression turns a patch map into a DynamoDB SET update expression.
// Attribute names go through #n placeholders so reserved words stay usable.
// Keys are sorted so the produced expression is deterministic.
func BuildSetExpression(fields map[string]interface{}) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(fields) == 0 {
		return "", nil, nil, fmt.Errorf("empty patch")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expr := "SET "
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	for i, k := range keys {
		av, err := attributevalue.Marshal(fields[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += nameKey + " = " + valueKey
		names[nameKey] = k
		values[valueKey] = av
	}
	return expr, names, values, nil
}
