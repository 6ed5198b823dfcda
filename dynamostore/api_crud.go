package dynamostore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	txtypes "github.com/hobro-11/txutil/txcommit/types"
)

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// GetNextSequence increments the counterId row of <tableName>_sequence and
// returns the new value. The first call returns 1.
func GetNextSequence(ctx context.Context, client API, tableName, counterId string) (uint, error) {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(tableName + "_sequence"),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: counterId},
		},
		UpdateExpression: aws.String("SET #val = if_not_exists(#val, :start_val) + :inc"),
		ExpressionAttributeNames: map[string]string{
			"#val": "currentValue",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc":       &types.AttributeValueMemberN{Value: "1"},
			":start_val": &types.AttributeValueMemberN{Value: "0"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	result, err := client.UpdateItem(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to get next sequence: %w", err)
	}

	currentValueAttr, ok := result.Attributes["currentValue"]
	if !ok {
		return 0, fmt.Errorf("currentValue not found in response")
	}

	currentValueN, ok := currentValueAttr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("currentValue is not a number")
	}

	seq, err := strconv.ParseInt(currentValueN.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sequence number: %w", err)
	}

	return uint(seq), nil
}

// SequenceAllocator draws values from one row of a sequence table.
type SequenceAllocator struct {
	client    API
	tableName string
	counterId string
}

func NewSequenceAllocator(client API, tableName, counterId string) *SequenceAllocator {
	return &SequenceAllocator{client: client, tableName: tableName, counterId: counterId}
}

func (a *SequenceAllocator) Next(ctx context.Context) (uint, error) {
	return GetNextSequence(ctx, a.client, a.tableName, a.counterId)
}

func (s *Store) putItem(change txtypes.Object) (types.TransactWriteItem, error) {
	item, err := marshalItem(change)
	if err != nil {
		return types.TransactWriteItem{}, err
	}

	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{
				"#pk": s.schema.PKName,
			},
		},
	}, nil
}

func (s *Store) updateItem(keys *Keys, change txtypes.Object) (types.TransactWriteItem, error) {
	key, err := keys.getKey()
	if err != nil {
		return types.TransactWriteItem{}, err
	}

	exp := newExpAttrs()
	updateExp, err := getUpdateProps(s.schema, change, exp)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	pkName := exp.addName(s.schema.PKName)

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(s.tableName),
			Key:                       key,
			UpdateExpression:          aws.String(updateExp),
			ConditionExpression:       aws.String("attribute_exists(" + pkName + ")"),
			ExpressionAttributeNames:  exp.getNames(),
			ExpressionAttributeValues: exp.getValues(),
		},
	}, nil
}

func (s *Store) deleteItem(keys *Keys) (types.TransactWriteItem, error) {
	key, err := keys.getKey()
	if err != nil {
		return types.TransactWriteItem{}, err
	}

	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName:           aws.String(s.tableName),
			Key:                 key,
			ConditionExpression: aws.String("attribute_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{
				"#pk": s.schema.PKName,
			},
		},
	}, nil
}

func (s *Store) getItem(ctx context.Context, keys *Keys) ([]txtypes.Object, error) {
	key, err := keys.getKey()
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	if len(result.Item) == 0 {
		return nil, nil
	}

	obj, err := unmarshalItem(result.Item)
	if err != nil {
		return nil, err
	}
	return []txtypes.Object{obj}, nil
}

// queryItems pages through every item under the filter's partition key.
func (s *Store) queryItems(ctx context.Context, keys *Keys, filter txtypes.Object) ([]txtypes.Object, error) {
	exp := newExpAttrs()

	pkName, pkValue, err := exp.add(keys.PKName, keys.PK)
	if err != nil {
		return nil, err
	}
	keyCond := pkName + " = " + pkValue

	if keys.hasSK() {
		skName, skValue, err := exp.add(keys.SKName, keys.SK)
		if err != nil {
			return nil, err
		}
		keyCond += " AND " + skName + " = " + skValue
	}

	filterExp, err := getFilterProps(s.schema, filter, exp)
	if err != nil {
		return nil, err
	}

	input := dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          filterExp,
		ExpressionAttributeNames:  exp.getNames(),
		ExpressionAttributeValues: exp.getValues(),
	}

	var dest []txtypes.Object
	for {
		result, err := s.client.Query(ctx, &input)
		if err != nil {
			return nil, err
		}

		for _, item := range result.Items {
			obj, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			dest = append(dest, obj)
		}

		if len(result.LastEvaluatedKey) == 0 {
			return dest, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
