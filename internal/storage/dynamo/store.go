// Package dynamo stores records in Amazon DynamoDB, one physical table per logical table.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/storage"
)

// batchSize is the BatchWriteItem request limit
const batchSize = 25

const maxBatchAttempts = 5

// API is the subset of the DynamoDB client the store uses
type API interface {
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Options configures the client
type Options struct {
	Region string
	// Endpoint overrides the service URL, e.g. http://localhost:8000 for DynamoDB Local
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// CreateTables lets Init create missing tables
	CreateTables bool
}

type Store struct {
	opts   Options
	client API
}

var _ storage.Provider = (*Store)(nil)

func New(opts Options) *Store {
	return &Store{opts: opts}
}

// NewWithClient returns a store using an already built client
func NewWithClient(client API) *Store {
	return &Store{client: client}
}

func (s *Store) Load(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(s.opts.Region)}
	if s.opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.opts.AccessKeyID, s.opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	s.client = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.opts.Endpoint)
		}
	})
	return nil
}

// Init connects and, when CreateTables is set, creates any missing tables
func (s *Store) Init(ctx context.Context, tables ...storage.Table) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	if !s.opts.CreateTables {
		return nil
	}

	for _, t := range tables {
		if err := s.ensureTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, t storage.Table) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.Name)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", t.Name, err)
	}

	logger.Info("Creating table", "table", t.Name)
	if _, err := s.client.CreateTable(ctx, createTableInput(t)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.Name)}, 2*time.Minute); err != nil {
		return fmt.Errorf("table %s did not become active: %w", t.Name, err)
	}
	return nil
}

func createTableInput(t storage.Table) *dynamodb.CreateTableInput {
	attrs := map[string]struct{}{t.PartitionKey: {}, t.SortKey: {}}
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(t.Name),
		BillingMode: types.BillingModePayPerRequest,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(t.PartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(t.SortKey), KeyType: types.KeyTypeRange},
		},
	}

	if t.Index != nil {
		attrs[t.Index.PartitionKey] = struct{}{}
		attrs[t.Index.SortKey] = struct{}{}
		in.GlobalSecondaryIndexes = []types.GlobalSecondaryIndex{{
			IndexName: aws.String(t.Index.Name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(t.Index.PartitionKey), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(t.Index.SortKey), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}}
	}

	for name := range attrs {
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}
	return in
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Describe() string {
	if s.opts.Endpoint != "" {
		return "dynamodb (" + s.opts.Endpoint + ")"
	}
	return "dynamodb (" + s.opts.Region + ")"
}

func keyAttributes(t storage.Table, key storage.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.PartitionKey: &types.AttributeValueMemberS{Value: key.PK},
		t.SortKey:      &types.AttributeValueMemberS{Value: key.SK},
	}
}

func (s *Store) Get(ctx context.Context, t storage.Table, key storage.Key) (storage.Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.Name),
		Key:       keyAttributes(t, key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s item: %w", t.Name, err)
	}
	if out.Item == nil {
		return nil, storage.ErrNotFound
	}

	var item storage.Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to decode %s item: %w", t.Name, err)
	}
	return item, nil
}

func (s *Store) Put(ctx context.Context, t storage.Table, item storage.Item) error {
	if _, err := t.Key(item); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("failed to encode %s item: %w", t.Name, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.Name),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put %s item: %w", t.Name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, t storage.Table, key storage.Key) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name),
		Key:       keyAttributes(t, key),
	}); err != nil {
		return fmt.Errorf("failed to delete %s item: %w", t.Name, err)
	}
	return nil
}

// DeleteBatch deletes keys in chunks of 25, resubmitting unprocessed items
func (s *Store) DeleteBatch(ctx context.Context, t storage.Table, keys []storage.Key) error {
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: keyAttributes(t, key)},
			})
		}

		if err := s.writeBatch(ctx, t.Name, requests); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeBatch(ctx context.Context, table string, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{table: requests}
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to batch write %s: %w", table, err)
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(50<<attempt) * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to batch write %s: unprocessed items after %d attempts", table, maxBatchAttempts)
}

func (s *Store) Query(ctx context.Context, t storage.Table, pk string, r storage.KeyRange) ([]storage.Item, error) {
	return s.query(ctx, t.Name, nil, t.PartitionKey, t.SortKey, pk, r)
}

func (s *Store) QueryIndex(ctx context.Context, t storage.Table, pk string, r storage.KeyRange) ([]storage.Item, error) {
	if t.Index == nil {
		return nil, fmt.Errorf("table %s has no secondary index", t.Name)
	}
	return s.query(ctx, t.Name, aws.String(t.Index.Name), t.Index.PartitionKey, t.Index.SortKey, pk, r)
}

// KeyCondition builds the key condition for a partition and an inclusive sort key range
func KeyCondition(pkName, skName, pk string, r storage.KeyRange) expression.KeyConditionBuilder {
	cond := expression.Key(pkName).Equal(expression.Value(pk))
	switch {
	case r.Start != "" && r.End != "":
		cond = cond.And(expression.Key(skName).Between(expression.Value(r.Start), expression.Value(r.End)))
	case r.Start != "":
		cond = cond.And(expression.Key(skName).GreaterThanEqual(expression.Value(r.Start)))
	case r.End != "":
		cond = cond.And(expression.Key(skName).LessThanEqual(expression.Value(r.End)))
	}
	return cond
}

func (s *Store) query(ctx context.Context, table string, index *string, pkName, skName, pk string, r storage.KeyRange) ([]storage.Item, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(KeyCondition(pkName, skName, pk, r)).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query for %s: %w", table, err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 index,
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []storage.Item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", table, err)
		}

		var decoded []storage.Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode %s items: %w", table, err)
		}
		items = append(items, decoded...)
	}
	return items, nil
}
