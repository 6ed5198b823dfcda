package dynamostore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	txtypes "github.com/hobro-11/txutil/txcommit/types"
)

// Store is an object-transaction service backed by one DynamoDB table.
//
// create puts a new item and fails if the key is taken, set updates the
// non-key attributes of an existing item, delete removes an item. rpc has no
// DynamoDB equivalent and is always rejected. All items of one call go into a
// single TransactWriteItems request.
type Store struct {
	client    API
	tableName string
	schema    KeySchema
	sequence  string
}

func New(client API, cfg Config) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		client:    client,
		tableName: cfg.TableName,
		schema:    KeySchema{PKName: cfg.PKName, SKName: cfg.SKName},
		sequence:  cfg.Sequence,
	}
}

// Transaction implements txcommit.Service. On rejection the reason is
// written to the return-string attribute of every item.
func (s *Store) Transaction(ctx context.Context, items []*txtypes.TxItem) bool {
	if len(items) == 0 {
		return true
	}

	tx := make([]types.TransactWriteItem, 0, len(items))
	for _, item := range items {
		w, err := s.writeItem(ctx, item)
		if err != nil {
			log.Warnf("dynamostore: %s on %s: %v", item.Operation, s.tableName, err)
			reject(items, err)
			return false
		}
		tx = append(tx, w)
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      tx,
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		log.Warnf("dynamostore: transaction on %s failed: %v", s.tableName, err)
		reject(items, err)
		return false
	}

	return true
}

func (s *Store) writeItem(ctx context.Context, item *txtypes.TxItem) (types.TransactWriteItem, error) {
	if item.Change == nil {
		return types.TransactWriteItem{}, fmt.Errorf("empty change")
	}

	switch item.Operation {
	case txtypes.VerbCreate:
		if err := s.assignKey(ctx, item.Change); err != nil {
			return types.TransactWriteItem{}, err
		}
		if _, err := s.schema.keysOf(item.Change, true); err != nil {
			return types.TransactWriteItem{}, err
		}
		return s.putItem(item.Change)
	case txtypes.VerbSet:
		keys, err := s.schema.keysOf(item.Change, true)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return s.updateItem(keys, item.Change)
	case txtypes.VerbDelete:
		keys, err := s.schema.keysOf(item.Change, true)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return s.deleteItem(keys)
	default:
		return types.TransactWriteItem{}, fmt.Errorf("%s is not supported", item.Operation)
	}
}

// assignKey fills in the partition key from the sequence counter when the
// store has one and the change does not carry a key yet.
func (s *Store) assignKey(ctx context.Context, change txtypes.Object) error {
	if s.sequence == "" {
		return nil
	}
	if _, ok := change[s.schema.PKName]; ok {
		return nil
	}

	seq, err := GetNextSequence(ctx, s.client, s.tableName, s.sequence)
	if err != nil {
		return err
	}
	change[s.schema.PKName] = seq
	return nil
}

func reject(items []*txtypes.TxItem, err error) {
	rs := ReturnString(err)
	for _, item := range items {
		if item.Change == nil {
			item.Change = txtypes.Object{}
		}
		item.Change[txtypes.ReturnStringAttr] = rs
	}
}

// Get implements txcommit.Service. Each filter must carry the partition key;
// a filter with the full key and nothing else is a point read, anything else
// is a query filtered on the remaining attributes.
func (s *Store) Get(ctx context.Context, filters []txtypes.Object, out *[]txtypes.Object) bool {
	for _, filter := range filters {
		objs, err := s.read(ctx, filter)
		if err != nil {
			log.Warnf("dynamostore: get on %s: %v", s.tableName, err)
			return false
		}
		*out = append(*out, objs...)
	}
	return true
}

func (s *Store) read(ctx context.Context, filter txtypes.Object) ([]txtypes.Object, error) {
	keys, err := s.schema.keysOf(filter, false)
	if err != nil {
		return nil, err
	}

	pointRead := len(filter) == 1
	if keys.hasSK() {
		pointRead = len(filter) == 2
	}
	if pointRead && (s.schema.SKName == "" || keys.hasSK()) {
		return s.getItem(ctx, keys)
	}
	return s.queryItems(ctx, keys, filter)
}
