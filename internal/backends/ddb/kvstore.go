package ddb

import (
	"context"
	"time"

	"dappdir/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KVStore implements ports.KVStore on a single DynamoDB table.
// Plain keys are one item (PK=KV#key, SK=VALUE) holding the bytes in "val".
// A set is one item per member (PK=SET#key, SK=MEM#member), listed with a Query.
type KVStore struct {
	table  string
	prefix string
	cli    *dynamodb.Client
}

type valueItem struct {
	PK  string `dynamodbav:"PK"`
	SK  string `dynamodbav:"SK"`
	Val []byte `dynamodbav:"val"`
}

type memberItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

// NewKVStore creates the table if it does not exist yet.
func NewKVStore(ctx context.Context, table, prefix string, cli *dynamodb.Client) (*KVStore, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, err
	}
	return &KVStore{table: table, prefix: prefix, cli: cli}, nil
}

func (s *KVStore) key(pk, sk string) map[string]ddbTypes.AttributeValue {
	return map[string]ddbTypes.AttributeValue{
		"PK": &ddbTypes.AttributeValueMemberS{Value: pk},
		"SK": &ddbTypes.AttributeValueMemberS{Value: sk},
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            s.key(pkValue(s.prefix+key), skValue()),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, false, types.Err(types.ErrDataStoreAccess, err, "ddb get %s", key)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var it valueItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, false, types.Err(types.ErrDataStoreAccess, err, "ddb unmarshal %s", key)
	}
	return it.Val, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(valueItem{
		PK:  pkValue(s.prefix + key),
		SK:  skValue(),
		Val: value,
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb marshal %s", key)
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb put %s", key)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       s.key(pkValue(s.prefix+key), skValue()),
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb delete %s", key)
	}
	return nil
}

func (s *KVStore) SetAdd(ctx context.Context, setKey, member string) error {
	item, err := attributevalue.MarshalMap(memberItem{
		PK: pkSet(s.prefix + setKey),
		SK: skMember(member),
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb marshal member %s", member)
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb add %s to %s", member, setKey)
	}
	return nil
}

func (s *KVStore) SetRemove(ctx context.Context, setKey, member string) error {
	_, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       s.key(pkSet(s.prefix+setKey), skMember(member)),
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "ddb remove %s from %s", member, setKey)
	}
	return nil
}

func (s *KVStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	p := dynamodb.NewQueryPaginator(s.cli, &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkSet(s.prefix + setKey)},
			":sk": &ddbTypes.AttributeValueMemberS{Value: skMemberPrefix()},
		},
		ProjectionExpression: awsString("PK, SK"),
		ConsistentRead:       awsBool(true),
	})
	members := make([]string, 0)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, types.Err(types.ErrDataStoreAccess, err, "ddb query %s", setKey)
		}
		for _, item := range out.Items {
			var it memberItem
			if err := attributevalue.UnmarshalMap(item, &it); err != nil {
				return nil, types.Err(types.ErrDataStoreAccess, err, "ddb unmarshal member of %s", setKey)
			}
			m, err := parseMember(it.SK)
			if err != nil {
				return nil, types.Err(types.ErrDataStoreAccess, err, "")
			}
			members = append(members, m)
		}
	}
	return members, nil
}

func (s *KVStore) Close() error {
	return nil
}

// ClearAll drops and recreates the table. Used in tests only.
func (s *KVStore) ClearAll(ctx context.Context) error {
	_, err := s.cli.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	err = dynamodb.NewTableNotExistsWaiter(s.cli).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, 30*time.Second)
	if err != nil {
		return err
	}
	return createTableIfNotExists(ctx, s.cli, s.table)
}
