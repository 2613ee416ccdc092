package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/julianstephens/growthtrack/internal/storage"
)

var logs = storage.Table{
	Name: "habit-logs", PartitionKey: "habit_id", SortKey: "date",
	Index: &storage.Index{Name: "user_id-date-index", PartitionKey: "user_id", SortKey: "date"},
}

type fakeClient struct {
	items        map[string]map[string]types.AttributeValue
	tables       map[string]bool
	created      []*dynamodb.CreateTableInput
	queries      []*dynamodb.QueryInput
	pages        []*dynamodb.QueryOutput
	batchCalls   []int
	unprocessOne bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: map[string]map[string]types.AttributeValue{}, tables: map[string]bool{}}
}

func fakeKey(item map[string]types.AttributeValue) string {
	pk := item["habit_id"].(*types.AttributeValueMemberS).Value
	sk := item["date"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[fakeKey(in.Key)]}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[fakeKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, fakeKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	out := &dynamodb.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		f.batchCalls = append(f.batchCalls, len(reqs))
		if f.unprocessOne && len(reqs) > 1 {
			f.unprocessOne = false
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[len(reqs)-1:]}
			reqs = reqs[:len(reqs)-1]
		}
		for _, r := range reqs {
			delete(f.items, fakeKey(r.DeleteRequest.Key))
		}
	}
	return out, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if !f.tables[aws.ToString(in.TableName)] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.created = append(f.created, in)
	f.tables[aws.ToString(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewWithClient(client)

	item := storage.Item{"habit_id": "h1", "user_id": "u1", "date": "2024-01-01", "completed": true, "count": 2.0}
	if err := store.Put(ctx, logs, item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, logs, storage.Key{PK: "h1", SK: "2024-01-01"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["completed"] != true || got["count"] != 2.0 || got.String("user_id") != "u1" {
		t.Errorf("unexpected item %v", got)
	}

	if err := store.Delete(ctx, logs, storage.Key{PK: "h1", SK: "2024-01-01"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, logs, storage.Key{PK: "h1", SK: "2024-01-01"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRequiresKey(t *testing.T) {
	store := NewWithClient(newFakeClient())
	if err := store.Put(context.Background(), logs, storage.Item{"habit_id": "h1"}); err == nil {
		t.Error("expected error for item without sort key")
	}
}

func TestDeleteBatchChunks(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewWithClient(client)

	var keys []storage.Key
	for i := 0; i < 60; i++ {
		date := "2024-01-" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		_ = store.Put(ctx, logs, storage.Item{"habit_id": "h1", "date": date})
		keys = append(keys, storage.Key{PK: "h1", SK: date})
	}

	if err := store.DeleteBatch(ctx, logs, keys); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if len(client.batchCalls) != 3 || client.batchCalls[0] != 25 || client.batchCalls[2] != 10 {
		t.Errorf("expected batches of 25, 25, 10, got %v", client.batchCalls)
	}
	if len(client.items) != 0 {
		t.Errorf("expected all items deleted, %d left", len(client.items))
	}
}

func TestDeleteBatchRetriesUnprocessed(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.unprocessOne = true
	store := NewWithClient(client)

	keys := []storage.Key{{PK: "h1", SK: "2024-01-01"}, {PK: "h1", SK: "2024-01-02"}}
	for _, k := range keys {
		_ = store.Put(ctx, logs, storage.Item{"habit_id": k.PK, "date": k.SK})
	}

	if err := store.DeleteBatch(ctx, logs, keys); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if len(client.batchCalls) != 2 || client.batchCalls[1] != 1 {
		t.Errorf("expected a retry of the unprocessed item, got %v", client.batchCalls)
	}
	if len(client.items) != 0 {
		t.Errorf("expected all items deleted, %d left", len(client.items))
	}
}

func TestQueryIndexPaginates(t *testing.T) {
	client := newFakeClient()
	client.pages = []*dynamodb.QueryOutput{
		{
			Items: []map[string]types.AttributeValue{
				{"habit_id": &types.AttributeValueMemberS{Value: "h1"}, "date": &types.AttributeValueMemberS{Value: "2024-01-01"}},
			},
			LastEvaluatedKey: map[string]types.AttributeValue{"habit_id": &types.AttributeValueMemberS{Value: "h1"}},
		},
		{
			Items: []map[string]types.AttributeValue{
				{"habit_id": &types.AttributeValueMemberS{Value: "h2"}, "date": &types.AttributeValueMemberS{Value: "2024-01-02"}},
			},
		},
	}
	store := NewWithClient(client)

	items, err := store.QueryIndex(context.Background(), logs, "u1", storage.KeyRange{Start: "2024-01-01", End: "2024-12-31"})
	if err != nil {
		t.Fatalf("QueryIndex failed: %v", err)
	}
	if len(items) != 2 || items[1].String("habit_id") != "h2" {
		t.Errorf("expected items from both pages, got %v", items)
	}
	if len(client.queries) != 2 {
		t.Fatalf("expected 2 query calls, got %d", len(client.queries))
	}
	if aws.ToString(client.queries[0].IndexName) != "user_id-date-index" {
		t.Errorf("expected index name, got %v", client.queries[0].IndexName)
	}
	if client.queries[1].ExclusiveStartKey == nil {
		t.Error("expected second page to start from LastEvaluatedKey")
	}
}

func TestQueryUsesTable(t *testing.T) {
	client := newFakeClient()
	store := NewWithClient(client)

	if _, err := store.Query(context.Background(), logs, "h1", storage.All); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if client.queries[0].IndexName != nil {
		t.Error("table query must not set an index")
	}
	if aws.ToString(client.queries[0].TableName) != "habit-logs" {
		t.Errorf("unexpected table %v", client.queries[0].TableName)
	}
}

func TestKeyCondition(t *testing.T) {
	tests := []struct {
		name   string
		r      storage.KeyRange
		values int
	}{
		{"partition only", storage.All, 1},
		{"between", storage.KeyRange{Start: "a", End: "z"}, 3},
		{"from", storage.KeyRange{Start: "a"}, 2},
		{"until", storage.KeyRange{End: "z"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := expression.NewBuilder().WithKeyCondition(KeyCondition("user_id", "date", "u1", tt.r)).Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if len(expr.Values()) != tt.values {
				t.Errorf("expected %d values, got %d", tt.values, len(expr.Values()))
			}
		})
	}
}

func TestInitCreatesMissingTables(t *testing.T) {
	client := newFakeClient()
	client.tables["existing"] = true
	store := NewWithClient(client)
	store.opts.CreateTables = true

	existing := storage.Table{Name: "existing", PartitionKey: "user_id", SortKey: "goal_id"}
	if err := store.Init(context.Background(), existing, logs); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(client.created) != 1 {
		t.Fatalf("expected 1 table created, got %d", len(client.created))
	}

	in := client.created[0]
	if aws.ToString(in.TableName) != "habit-logs" {
		t.Errorf("unexpected table %v", in.TableName)
	}
	if len(in.GlobalSecondaryIndexes) != 1 || aws.ToString(in.GlobalSecondaryIndexes[0].IndexName) != "user_id-date-index" {
		t.Errorf("expected user_id-date-index, got %+v", in.GlobalSecondaryIndexes)
	}
	if len(in.AttributeDefinitions) != 3 {
		t.Errorf("expected 3 attribute definitions, got %d", len(in.AttributeDefinitions))
	}
}

func TestInitWithoutCreateTables(t *testing.T) {
	client := newFakeClient()
	store := NewWithClient(client)

	if err := store.Init(context.Background(), logs); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(client.created) != 0 {
		t.Error("tables must not be created unless enabled")
	}
}
