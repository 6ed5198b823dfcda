package dynamostore

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	txtypes "github.com/hobro-11/txutil/txcommit/types"
)

// KeySchema names the table's key attributes. SKName is empty for tables
// without a sort key.
type KeySchema struct {
	PKName string
	SKName string
}

type Keys struct {
	// PK 값은 필수이다.
	PK     any
	PKName string
	SK     any
	SKName string
}

func (s KeySchema) isKey(name string) bool {
	return name == s.PKName || (s.SKName != "" && name == s.SKName)
}

// keysOf picks the key attributes out of obj.
// requireSK 가 true 이면 sort key 가 없는 경우 에러를 반환한다.
func (s KeySchema) keysOf(obj txtypes.Object, requireSK bool) (*Keys, error) {
	keys := &Keys{PKName: s.PKName, SKName: s.SKName}

	pk, ok := obj[s.PKName]
	if !ok {
		return nil, fmt.Errorf("missing partition key %q", s.PKName)
	}
	keys.PK = pk

	if s.SKName == "" {
		return keys, nil
	}
	sk, ok := obj[s.SKName]
	if !ok && requireSK {
		return nil, fmt.Errorf("missing sort key %q", s.SKName)
	}
	keys.SK = sk
	return keys, nil
}

func (k *Keys) hasSK() bool {
	return k.SKName != "" && k.SK != nil
}

func (k *Keys) getKey() (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue)

	pk := MustMarshalKey(k.PK)
	if pk == nil {
		return nil, fmt.Errorf("unsupported partition key type %T", k.PK)
	}
	key[k.PKName] = pk

	if !k.hasSK() {
		return key, nil
	}

	sk := MustMarshalKey(k.SK)
	if sk == nil {
		return nil, fmt.Errorf("unsupported sort key type %T", k.SK)
	}
	key[k.SKName] = sk

	return key, nil
}

// number와 string 만 지원, 지원하지 않는 타입의 경우 nil을 반환한다.
// if key is nil, return nil
func MustMarshalKey(key any) types.AttributeValue {
	if key == nil {
		return nil
	}
	switch v := key.(type) {
	case string:
		return &types.AttributeValueMemberS{Value: v}
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
	case int32:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(int(v))}
	case int16:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(int(v))}
	case int:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(v)}
	case uint64:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(v, 10)}
	case uint:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(v), 10)}
	case uint16:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(v), 10)}
	case uint8:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(v), 10)}
	case uint32:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(v), 10)}
	case float64:
		// read results decode numbers as float64
		if v != math.Trunc(v) {
			return nil
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}
	default:
		return nil
	}
}

// expAttrs collects expression attribute names and values, numbering them
// #f0/:v0, #f1/:v1, ...
type expAttrs struct {
	names  map[string]string
	values map[string]types.AttributeValue
	n      int
}

func newExpAttrs() *expAttrs {
	return &expAttrs{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

// add registers column=value and returns the placeholder pair.
func (e *expAttrs) add(column string, value any) (nameKey, valueKey string, err error) {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return "", "", fmt.Errorf("marshal %q: %w", column, err)
	}

	nameKey = "#f" + strconv.Itoa(e.n)
	valueKey = ":v" + strconv.Itoa(e.n)
	e.n++

	e.names[nameKey] = column
	e.values[valueKey] = av
	return nameKey, valueKey, nil
}

func (e *expAttrs) addName(column string) string {
	nameKey := "#f" + strconv.Itoa(e.n)
	e.n++
	e.names[nameKey] = column
	return nameKey
}

func (e *expAttrs) getNames() map[string]string {
	if len(e.names) == 0 {
		return nil
	}
	return e.names
}

func (e *expAttrs) getValues() map[string]types.AttributeValue {
	if len(e.values) == 0 {
		return nil
	}
	return e.values
}

// getUpdateProps builds a SET expression from every non-key attribute of
// change. Attributes whose value is nil are skipped.
func getUpdateProps(schema KeySchema, change txtypes.Object, exp *expAttrs) (string, error) {
	var setExpressions []string

	for _, column := range change.Keys() {
		if schema.isKey(column) || column == txtypes.ReturnStringAttr {
			continue
		}
		value := change[column]
		if value == nil {
			continue
		}

		nameKey, valueKey, err := exp.add(column, value)
		if err != nil {
			return "", err
		}
		setExpressions = append(setExpressions, nameKey+" = "+valueKey)
	}

	if len(setExpressions) == 0 {
		return "", fmt.Errorf("no attributes to set")
	}

	return "SET " + strings.Join(setExpressions, ", "), nil
}

// getFilterProps builds an equality filter over every non-key attribute of a
// read filter. Returns nil when the filter has only keys.
func getFilterProps(schema KeySchema, filter txtypes.Object, exp *expAttrs) (*string, error) {
	var conds []string

	for _, column := range filter.Keys() {
		if schema.isKey(column) {
			continue
		}
		nameKey, valueKey, err := exp.add(column, filter[column])
		if err != nil {
			return nil, err
		}
		conds = append(conds, nameKey+" = "+valueKey)
	}

	if len(conds) == 0 {
		return nil, nil
	}
	return aws.String(strings.Join(conds, " AND ")), nil
}

// Helper function to marshal an object to DynamoDB attribute values
func marshalItem(obj txtypes.Object) (map[string]types.AttributeValue, error) {
	in := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == txtypes.ReturnStringAttr {
			continue
		}
		in[k] = v
	}
	av, err := attributevalue.MarshalMap(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return av, nil
}

func unmarshalItem(item map[string]types.AttributeValue) (txtypes.Object, error) {
	out := make(map[string]any, len(item))
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return nil, err
	}
	return txtypes.NewObject(out), nil
}
