package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DDBManifest stores the snapshot manifest in a DynamoDB table, using
// conditional writes for atomic version commits. This enables safe
// concurrent writers against a shared blob store.
//
// Table schema:
//   - Partition key: registry (string) - the logical registry name
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name prodmatch-snapshots \
//	  --attribute-definitions AttributeName=registry,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=registry,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBManifest struct {
	client    DDBClient
	tableName string
	registry  string // partition key value
}

var _ Manifest = (*DDBManifest)(nil)

// NewDDBManifest creates a manifest backed by the given DynamoDB table.
// The registry name is used as partition key so one table can serve
// multiple catalogs.
func NewDDBManifest(client DDBClient, tableName, registry string) *DDBManifest {
	return &DDBManifest{
		client:    client,
		tableName: tableName,
		registry:  registry,
	}
}

// Commit implements the Manifest interface. The conditional write fails if
// the version already exists, which surfaces as ErrConcurrentCommit.
func (m *DDBManifest) Commit(ctx context.Context, snap Snapshot) error {
	_, err := m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item: map[string]types.AttributeValue{
			"registry":      &types.AttributeValueMemberS{Value: m.registry},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(snap.Version, 10)},
			"key":           &types.AttributeValueMemberS{Value: snap.Key},
			"product_count": &types.AttributeValueMemberN{Value: strconv.Itoa(snap.ProductCount)},
			"created_at":    &types.AttributeValueMemberS{Value: snap.CreatedAt.Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentCommit
		}
		return fmt.Errorf("commit version to DynamoDB: %w", err)
	}

	return nil
}

// Latest implements the Manifest interface.
func (m *DDBManifest) Latest(ctx context.Context) (Snapshot, bool, error) {
	resp, err := m.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(m.tableName),
		KeyConditionExpression: aws.String("registry = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberS{Value: m.registry},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return Snapshot{}, false, nil
	}

	snap, err := snapshotFromItem(resp.Items[0])
	if err != nil {
		return Snapshot{}, false, err
	}

	return snap, true, nil
}

// Get implements the Manifest interface.
func (m *DDBManifest) Get(ctx context.Context, version uint64) (Snapshot, bool, error) {
	resp, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"registry": &types.AttributeValueMemberS{Value: m.registry},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
	})
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("get item from DynamoDB: %w", err)
	}

	if len(resp.Item) == 0 {
		return Snapshot{}, false, nil
	}

	snap, err := snapshotFromItem(resp.Item)
	if err != nil {
		return Snapshot{}, false, err
	}

	return snap, true, nil
}

// List implements the Manifest interface.
func (m *DDBManifest) List(ctx context.Context) ([]Snapshot, error) {
	var (
		snaps   []Snapshot
		lastKey map[string]types.AttributeValue
	)

	for {
		resp, err := m.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(m.tableName),
			KeyConditionExpression: aws.String("registry = :r"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":r": &types.AttributeValueMemberS{Value: m.registry},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query DynamoDB: %w", err)
		}

		for _, item := range resp.Items {
			snap, err := snapshotFromItem(item)
			if err != nil {
				return nil, err
			}

			snaps = append(snaps, snap)
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}

		lastKey = resp.LastEvaluatedKey
	}

	sortSnapshots(snaps)

	return snaps, nil
}

func snapshotFromItem(item map[string]types.AttributeValue) (Snapshot, error) {
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return Snapshot{}, errors.New("invalid version attribute in DynamoDB")
	}

	keyAttr, ok := item["key"].(*types.AttributeValueMemberS)
	if !ok {
		return Snapshot{}, errors.New("invalid key attribute in DynamoDB")
	}

	countAttr, ok := item["product_count"].(*types.AttributeValueMemberN)
	if !ok {
		return Snapshot{}, errors.New("invalid product_count attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse version: %w", err)
	}

	count, err := strconv.Atoi(countAttr.Value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse product_count: %w", err)
	}

	snap := Snapshot{
		Version:      version,
		Key:          keyAttr.Value,
		ProductCount: count,
	}

	if createdAttr, ok := item["created_at"].(*types.AttributeValueMemberS); ok {
		if t, err := time.Parse(time.RFC3339Nano, createdAttr.Value); err == nil {
			snap.CreatedAt = t
		}
	}

	return snap, nil
}
