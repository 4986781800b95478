package ddb

import (
	"context"
	"errors"
	"fmt"

	"dappdir/internal/types"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	SValue = "KV"
	SSet   = "SET"
	SMem   = "MEM"
)

func pkValue(key string) string          { return fmt.Sprintf("%s#%s", SValue, key) }
func skValue() string                    { return "VALUE" }
func pkSet(setKey string) string         { return fmt.Sprintf("%s#%s", SSet, setKey) }
func skMember(member string) string      { return fmt.Sprintf("%s#%s", SMem, member) }
func skMemberPrefix() string             { return SMem + "#" }
func awsString(s string) *string         { return &s }
func awsBool(b bool) *bool               { return &b }
func errorAs(err error, target any) bool { return errors.As(err, target) }

func parseMember(sk string) (string, error) {
	prefix := skMemberPrefix()
	if len(sk) <= len(prefix) || sk[:len(prefix)] != prefix {
		return "", fmt.Errorf("unexpected sort key %q", sk)
	}
	return sk[len(prefix):], nil
}

func createTableIfNotExists(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errorAs(err, &re) {
		return types.Err(types.ErrDataStoreAccess, err, "create table %s", table)
	}
	return nil
}
