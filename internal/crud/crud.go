// Package crud implements list/get/create/update/delete for owner-partitioned records.
package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/storage"
)

const (
	createdAt = "created_at"
	updatedAt = "updated_at"
)

// Record is implemented by the model pointer types
type Record interface {
	Validate() error
	// Label is the text matched by the ?q= search
	Label() string
}

// Entity describes one resource. The table's partition key is the owner
// attribute and its sort key is the record id.
type Entity[T any] struct {
	// Name is used in messages, e.g. "Goal not found"
	Name string
	// Path is the collection route, e.g. "/goals"
	Path  string
	Table storage.Table
	// New returns a record carrying the create defaults
	New func() *T
}

func (e Entity[T]) OwnerKey() string { return e.Table.PartitionKey }
func (e Entity[T]) IDKey() string    { return e.Table.SortKey }

// Service is the CRUD logic for one entity
type Service[T any, PT interface {
	*T
	Record
}] struct {
	entity Entity[T]
	store  storage.Provider
	now    func() time.Time
	newID  func() string
	// beforeDelete runs after the record is found and before it is removed
	beforeDelete func(ctx context.Context, ownerID, id string) error
}

func NewService[T any, PT interface {
	*T
	Record
}](store storage.Provider, entity Entity[T]) *Service[T, PT] {
	return &Service[T, PT]{
		entity: entity,
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service[T, PT]) Entity() Entity[T] { return s.entity }

// SetClock replaces the time source
func (s *Service[T, PT]) SetClock(now func() time.Time) { s.now = now }

// OnDelete registers fn to run before a record is deleted. An error aborts the delete.
func (s *Service[T, PT]) OnDelete(fn func(ctx context.Context, ownerID, id string) error) {
	s.beforeDelete = fn
}

func (s *Service[T, PT]) notFound() error {
	return apperrors.NotFound(s.entity.Name + " not found")
}

// List returns the owner's records ordered by id, or by match score when query is set
func (s *Service[T, PT]) List(ctx context.Context, ownerID, query string) ([]T, error) {
	items, err := s.store.Query(ctx, s.entity.Table, ownerID, storage.All)
	if err != nil {
		return nil, err
	}
	records, err := storage.DecodeAll[T](items)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return records, nil
	}
	return Search[T, PT](records, query), nil
}

// Search fuzzy-matches query against each record's label, best match first
func Search[T any, PT interface {
	*T
	Record
}](records []T, query string) []T {
	labels := make([]string, len(records))
	for i := range records {
		labels[i] = PT(&records[i]).Label()
	}

	matches := fuzzy.Find(query, labels)
	out := make([]T, 0, len(matches))
	for _, m := range matches {
		out = append(out, records[m.Index])
	}
	return out
}

func (s *Service[T, PT]) getItem(ctx context.Context, ownerID, id string) (storage.Item, error) {
	item, err := s.store.Get(ctx, s.entity.Table, storage.Key{PK: ownerID, SK: id})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, s.notFound()
		}
		return nil, err
	}
	return item, nil
}

func (s *Service[T, PT]) Get(ctx context.Context, ownerID, id string) (*T, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	record, err := storage.Decode[T](item)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create stores a new record built from the defaults overlaid with body.
// The owner, a fresh UUID and both timestamps are assigned here.
func (s *Service[T, PT]) Create(ctx context.Context, ownerID string, body []byte) (*T, error) {
	item, err := storage.Encode(s.entity.New())
	if err != nil {
		return nil, err
	}
	if err := s.overlay(item, body); err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	item[s.entity.OwnerKey()] = ownerID
	item[s.entity.IDKey()] = s.newID()
	item[createdAt] = now
	item[updatedAt] = now

	record, err := s.save(ctx, item)
	if err != nil {
		return nil, err
	}
	logger.Debug("Created record", "entity", s.entity.Name, "id", item[s.entity.IDKey()])
	return record, nil
}

// Update merges the fields present in body into the stored record
func (s *Service[T, PT]) Update(ctx context.Context, ownerID, id string, body []byte) (*T, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.overlay(item, body); err != nil {
		return nil, err
	}
	item[updatedAt] = s.now().UTC().Format(time.RFC3339Nano)

	return s.save(ctx, item)
}

func (s *Service[T, PT]) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.getItem(ctx, ownerID, id); err != nil {
		return err
	}
	if s.beforeDelete != nil {
		if err := s.beforeDelete(ctx, ownerID, id); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, s.entity.Table, storage.Key{PK: ownerID, SK: id})
}

// overlay copies the fields of a JSON object body onto item, skipping keys and timestamps
func (s *Service[T, PT]) overlay(item storage.Item, body []byte) error {
	if len(body) == 0 {
		return nil
	}

	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		return apperrors.Invalid("request body must be a JSON object")
	}
	for k, v := range patch {
		switch k {
		case s.entity.OwnerKey(), s.entity.IDKey(), createdAt, updatedAt:
			continue
		}
		item[k] = v
	}
	return nil
}

// save validates item as a T and writes the normalized record back
func (s *Service[T, PT]) save(ctx context.Context, item storage.Item) (*T, error) {
	record, err := storage.Decode[T](item)
	if err != nil {
		return nil, apperrors.Invalid("%v", unwrapJSON(err))
	}
	if err := PT(&record).Validate(); err != nil {
		return nil, err
	}

	normalized, err := storage.Encode(&record)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, s.entity.Table, normalized); err != nil {
		return nil, err
	}
	return &record, nil
}

func unwrapJSON(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return err
}
