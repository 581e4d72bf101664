package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// API is the subset of *dynamodb.Client the store calls.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store implements kv.Store on a single DynamoDB table.
// PK: pk. Scalars live in value (B), sets in members (SS), counters in counter (N).
type Store struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewStore(client API, tableName string) *Store {
	return &Store{client: client, tableName: tableName, now: time.Now}
}

func (s *Store) key(k string) map[string]types.AttributeValue {
	return strKey(attrKey, k)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo get %s: %w", key, err)
	}
	if out.Item == nil || expired(out.Item, s.now()) {
		return nil, kv.ErrNil
	}
	b, ok := scalarValue(out.Item)
	if !ok {
		return nil, kv.ErrNil
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := s.key(key)
	item[attrValue] = &types.AttributeValueMemberB{Value: value}
	if exp := ttlEpoch(s.now(), ttl); exp > 0 {
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)}
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamo put %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetDel(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.key(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo getdel %s: %w", key, err)
	}
	if out.Attributes == nil || expired(out.Attributes, s.now()) {
		return nil, kv.ErrNil
	}
	b, ok := scalarValue(out.Attributes)
	if !ok {
		return nil, kv.ErrNil
	}
	return b, nil
}

// Del removes keys with TransactWriteItems in chunks of 100. A transaction
// may not touch the same key twice, so keys are de-duplicated first.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	keys = unique(keys)
	switch len(keys) {
	case 0:
		return nil
	case 1:
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       s.key(keys[0]),
		})
		if err != nil {
			return fmt.Errorf("dynamo delete %s: %w", keys[0], err)
		}
		return nil
	}
	for _, group := range chunk(keys, maxTransactItems) {
		items := make([]types.TransactWriteItem, 0, len(group))
		for _, k := range group {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{TableName: aws.String(s.tableName), Key: s.key(k)},
			})
		}
		if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return fmt.Errorf("dynamo batch delete: %w", err)
		}
	}
	return nil
}

func (s *Store) updateSet(ctx context.Context, action, key string, members []string) error {
	members = unique(members)
	if len(members) == 0 {
		return nil
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(key),
		UpdateExpression:          aws.String(action + " #m :m"),
		ExpressionAttributeNames:  map[string]string{"#m": attrMembers},
		ExpressionAttributeValues: map[string]types.AttributeValue{":m": &types.AttributeValueMemberSS{Value: members}},
	})
	if err != nil {
		return fmt.Errorf("dynamo %s %s: %w", action, key, err)
	}
	return nil
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	return s.updateSet(ctx, "ADD", key, members)
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	return s.updateSet(ctx, "DELETE", key, members)
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo smembers %s: %w", key, err)
	}
	ss, ok := out.Item[attrMembers].(*types.AttributeValueMemberSS)
	if !ok {
		return []string{}, nil
	}
	return ss.Value, nil
}

func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{attrTTL: ttlEpoch(s.now(), ttl)})
	if err != nil {
		return 0, err
	}
	ue.Expr += " ADD #cnt :one"
	ue.Names["#cnt"] = attrCounter
	ue.Values[":one"] = &types.AttributeValueMemberN{Value: "1"}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(key),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("dynamo incr %s: %w", key, err)
	}
	c, ok := out.Attributes[attrCounter].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("dynamo incr %s: counter missing from response", key)
	}
	return strconv.ParseInt(c.Value, 10, 64)
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          aws.String("begins_with(#k, :p)"),
		ProjectionExpression:      aws.String("#k, #t"),
		ExpressionAttributeNames:  map[string]string{"#k": attrKey, "#t": attrTTL},
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": &types.AttributeValueMemberS{Value: prefix}},
	})
	now := s.now()
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamo scan %s: %w", prefix, err)
		}
		for _, item := range page.Items {
			if expired(item, now) {
				continue
			}
			if k, ok := item[attrKey].(*types.AttributeValueMemberS); ok {
				keys = append(keys, k.Value)
			}
		}
	}
	return keys, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}

func (s *Store) Close() error { return nil }

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
