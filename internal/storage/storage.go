// Package storage defines the key-value record store the services persist to.
//
// Every table is addressed by a partition key and a sort key, with at most one
// secondary index. Records are schemaless JSON-compatible maps so the same
// services run against DynamoDB in production and SQLite or PostgreSQL locally.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record matches the key
var ErrNotFound = errors.New("record not found")

// Provider is a partition/sort keyed record store
type Provider interface {
	// Init creates whatever the provider needs for the given tables
	Init(ctx context.Context, tables ...Table) error
	// Load connects to an already initialized store
	Load(ctx context.Context) error
	Close() error

	Get(ctx context.Context, t Table, key Key) (Item, error)
	// Put inserts or replaces the record with the item's key
	Put(ctx context.Context, t Table, item Item) error
	// Delete removes the record; deleting a missing key is not an error
	Delete(ctx context.Context, t Table, key Key) error
	DeleteBatch(ctx context.Context, t Table, keys []Key) error
	// Query returns the partition's records in ascending sort key order
	Query(ctx context.Context, t Table, pk string, r KeyRange) ([]Item, error)
	// QueryIndex is Query over the table's secondary index
	QueryIndex(ctx context.Context, t Table, pk string, r KeyRange) ([]Item, error)

	// Describe returns a non-sensitive identifier for diagnostics
	Describe() string
}

// Table describes the key layout of a physical table
type Table struct {
	Name         string
	PartitionKey string
	SortKey      string
	Index        *Index
}

// Index is a secondary index keyed on other attributes of the same records
type Index struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// Key identifies one record within a table
type Key struct {
	PK string
	SK string
}

// KeyRange bounds the sort key inclusively. Empty ends are open.
type KeyRange struct {
	Start string
	End   string
}

// All matches every sort key in a partition
var All = KeyRange{}

// Contains reports whether sk falls within the range
func (r KeyRange) Contains(sk string) bool {
	if r.Start != "" && sk < r.Start {
		return false
	}
	if r.End != "" && sk > r.End {
		return false
	}
	return true
}

// Item is a single record
type Item map[string]any

// String returns the attribute as a string, or "" when absent or not a string
func (i Item) String(attr string) string {
	s, _ := i[attr].(string)
	return s
}

// Key extracts the table key from the item
func (t Table) Key(item Item) (Key, error) {
	k := Key{PK: item.String(t.PartitionKey), SK: item.String(t.SortKey)}
	if k.PK == "" || k.SK == "" {
		return Key{}, fmt.Errorf("item for %s is missing %s or %s", t.Name, t.PartitionKey, t.SortKey)
	}
	return k, nil
}

// IndexKey extracts the secondary index key; ok is false when the table has no
// index or the item does not carry both attributes.
func (t Table) IndexKey(item Item) (Key, bool) {
	if t.Index == nil {
		return Key{}, false
	}
	k := Key{PK: item.String(t.Index.PartitionKey), SK: item.String(t.Index.SortKey)}
	return k, k.PK != "" && k.SK != ""
}

// Encode converts a model into an Item through its JSON representation
func Encode(v any) (Item, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return item, nil
}

// Decode converts an Item back into a model
func Decode[T any](item Item) (T, error) {
	var v T
	data, err := json.Marshal(item)
	if err != nil {
		return v, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode record: %w", err)
	}
	return v, nil
}

// DecodeAll decodes a slice of items
func DecodeAll[T any](items []Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := Decode[T](item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
