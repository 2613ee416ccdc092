// Package habits adds habit logs, the contribution heat map and reminders on top of habit CRUD.
package habits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/contribution"
	"github.com/julianstephens/growthtrack/internal/crud"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/models"
	"github.com/julianstephens/growthtrack/internal/scheduler"
	"github.com/julianstephens/growthtrack/internal/storage"
)

// Tables names the habit and habit log tables
type Tables struct {
	Habits    string
	HabitLogs string
}

// HabitTable is the key layout of the habits table
func HabitTable(name string) storage.Table {
	return storage.Table{Name: name, PartitionKey: "user_id", SortKey: "habit_id"}
}

// LogTable is the key layout of the habit logs table and its user/date index
func LogTable(name string) storage.Table {
	return storage.Table{
		Name:         name,
		PartitionKey: "habit_id",
		SortKey:      "date",
		Index: &storage.Index{
			Name:         constants.HabitLogUserIndex,
			PartitionKey: "user_id",
			SortKey:      "date",
		},
	}
}

type Service struct {
	*crud.Service[models.Habit, *models.Habit]
	store     storage.Provider
	logs      storage.Table
	scheduler *scheduler.Scheduler
	now       func() time.Time
}

func New(store storage.Provider, tables Tables, sched *scheduler.Scheduler) *Service {
	entity := crud.Entity[models.Habit]{
		Name:  "Habit",
		Path:  "/habits",
		Table: HabitTable(tables.Habits),
		New:   models.NewHabit,
	}
	s := &Service{
		Service:   crud.NewService[models.Habit](store, entity),
		store:     store,
		logs:      LogTable(tables.HabitLogs),
		scheduler: sched,
		now:       time.Now,
	}
	s.OnDelete(s.deleteLogs)
	return s
}

// SetClock replaces the time source for both habits and logs
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.Service.SetClock(now)
}

// LogTable returns the habit log table layout
func (s *Service) LogTable() storage.Table { return s.logs }

// deleteLogs removes every log recorded for habitID
func (s *Service) deleteLogs(ctx context.Context, _, habitID string) error {
	items, err := s.store.Query(ctx, s.logs, habitID, storage.All)
	if err != nil {
		return err
	}
	keys := make([]storage.Key, 0, len(items))
	for _, item := range items {
		key, err := s.logs.Key(item)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	if err := s.store.DeleteBatch(ctx, s.logs, keys); err != nil {
		return fmt.Errorf("failed to delete habit logs: %w", err)
	}
	logger.Debug("Deleted habit logs", "habit_id", habitID, "count", len(keys))
	return nil
}

// Active returns the user's active habits
func (s *Service) Active(ctx context.Context, userID string) ([]models.Habit, error) {
	all, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	active := make([]models.Habit, 0, len(all))
	for _, h := range all {
		if h.IsActive {
			active = append(active, h)
		}
	}
	return active, nil
}

// ListLogs returns a habit's logs between start and end inclusive; empty bounds are open
func (s *Service) ListLogs(ctx context.Context, userID, habitID, start, end string) ([]models.HabitLog, error) {
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return nil, err
	}
	items, err := s.store.Query(ctx, s.logs, habitID, storage.KeyRange{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return storage.DecodeAll[models.HabitLog](items)
}

// LogsForUser returns all of the user's logs between start and end through the user/date index
func (s *Service) LogsForUser(ctx context.Context, userID, start, end string) ([]models.HabitLog, error) {
	items, err := s.store.QueryIndex(ctx, s.logs, userID, storage.KeyRange{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return storage.DecodeAll[models.HabitLog](items)
}

// RecordLog writes the log for (habitID, date), replacing any existing one
func (s *Service) RecordLog(ctx context.Context, userID, habitID string, in models.HabitLogInput) (*models.HabitLog, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return nil, err
	}

	log := in.ToLog(habitID, userID, s.now())
	item, err := storage.Encode(log)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, s.logs, item); err != nil {
		return nil, err
	}
	return &log, nil
}

// RecordLogJSON decodes a request body and records it
func (s *Service) RecordLogJSON(ctx context.Context, userID, habitID string, body []byte) (*models.HabitLog, error) {
	var in models.HabitLogInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, apperrors.Invalid("request body must be a habit log object")
	}
	return s.RecordLog(ctx, userID, habitID, in)
}

// DeleteLog removes the log for (habitID, date)
func (s *Service) DeleteLog(ctx context.Context, userID, habitID, date string) error {
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, s.logs, storage.Key{PK: habitID, SK: date}); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NotFound("Habit log not found")
		}
		return err
	}
	return s.store.Delete(ctx, s.logs, storage.Key{PK: habitID, SK: date})
}

// Contributions builds the user's heat map for year. Habits and the year's logs
// are fetched concurrently.
func (s *Service) Contributions(ctx context.Context, userID string, year int) (models.ContributionYear, error) {
	var (
		active []models.Habit
		logs   []models.HabitLog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.Active(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.LogsForUser(gctx, userID, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ContributionYear{}, err
	}

	if len(active) == 0 {
		return models.ContributionYear{}, apperrors.NotFound("No habits found for user")
	}
	return contribution.Compute(logs, year, len(active)), nil
}

// TodayState returns the active habits and today's logs for userID
func (s *Service) TodayState(ctx context.Context, userID string) ([]models.Habit, []models.HabitLog, error) {
	today := s.now().Format(constants.DateFormat)

	var (
		active []models.Habit
		logs   []models.HabitLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.Active(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.LogsForUser(gctx, userID, today, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return active, logs, nil
}

// Plan reports what a reminder run would do today without sending anything
func (s *Service) Plan(ctx context.Context, userID string) (scheduler.Plan, error) {
	active, logs, err := s.TodayState(ctx, userID)
	if err != nil {
		return scheduler.Plan{}, err
	}
	return scheduler.Build(active, logs, s.now()), nil
}

// Remind sends today's reminder for userID. It fails with ErrNotConfigured
// before touching storage when no webhook is set.
func (s *Service) Remind(ctx context.Context, userID string) (scheduler.Result, error) {
	if s.scheduler == nil || !s.scheduler.Configured() {
		return scheduler.Result{}, fmt.Errorf("%w: Slack webhook URL is not configured", apperrors.ErrNotConfigured)
	}

	active, logs, err := s.TodayState(ctx, userID)
	if err != nil {
		return scheduler.Result{}, err
	}
	return s.scheduler.Remind(ctx, active, logs, s.now())
}
