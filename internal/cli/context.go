// Package cli implements the growth command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/growthtrack/internal/bootstrap"
	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/crud"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/models"
)

type Context struct {
	Core   *bootstrap.Core
	UserID string
	Out    io.Writer
	Now    func() time.Time
}

func NewContext(core *bootstrap.Core, userID string) *Context {
	return &Context{Core: core, UserID: userID, Out: os.Stdout, Now: time.Now}
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

func (c *Context) background() context.Context {
	return context.Background()
}

// today returns date, or the current date when date is empty
func (c *Context) today(date string) string {
	if date == "" {
		return c.Now().Format(constants.DateFormat)
	}
	return date
}

// resolveHabit finds the user's habit by id, exact name, or best fuzzy match
func (c *Context) resolveHabit(query string, includeInactive bool) (*models.Habit, error) {
	svc := c.Core.Services.Habits
	all, err := svc.List(c.background(), c.UserID, "")
	if err != nil {
		return nil, err
	}

	var candidates []models.Habit
	for _, h := range all {
		if h.HabitID == query {
			return &h, nil
		}
		if h.IsActive || includeInactive {
			candidates = append(candidates, h)
		}
	}
	for _, h := range candidates {
		if strings.EqualFold(h.Name, query) {
			return &h, nil
		}
	}

	matches := crud.Search[models.Habit](candidates, query)
	if len(matches) == 0 {
		return nil, apperrors.NotFound(fmt.Sprintf("no habit matches %q", query))
	}
	return &matches[0], nil
}
