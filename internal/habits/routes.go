package habits

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/growthtrack/internal/crud"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/validation"
)

// Mount registers the habit routes on r. The fixed paths go first so
// /habits/contributions is not captured by /habits/:habit_id.
func Mount(r fiber.Router, svc *Service) {
	r.Get("/habits/contributions", func(c *fiber.Ctx) error {
		userID, err := crud.OwnerParam(c, "user_id")
		if err != nil {
			return err
		}
		year := svc.now().Year()
		if raw := c.Query("year"); raw != "" {
			year, err = strconv.Atoi(raw)
			if err != nil {
				return apperrors.Invalid("year must be an integer")
			}
			if err := validation.Range("year", year, 1, 9999); err != nil {
				return err
			}
		}
		result, err := svc.Contributions(c.UserContext(), userID, year)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	r.Post("/habits/reminder", func(c *fiber.Ctx) error {
		userID, err := crud.OwnerParam(c, "user_id")
		if err != nil {
			return err
		}
		result, err := svc.Remind(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	r.Get("/habits/:habit_id/logs", func(c *fiber.Ctx) error {
		userID, err := crud.OwnerParam(c, "user_id")
		if err != nil {
			return err
		}
		start, end := c.Query("start_date"), c.Query("end_date")
		if err := validation.First(
			validation.OptionalDate("start_date", &start),
			validation.OptionalDate("end_date", &end),
		); err != nil {
			return err
		}
		logs, err := svc.ListLogs(c.UserContext(), userID, c.Params("habit_id"), start, end)
		if err != nil {
			return err
		}
		return c.JSON(logs)
	})

	r.Post("/habits/:habit_id/logs", func(c *fiber.Ctx) error {
		userID, err := crud.OwnerParam(c, "user_id")
		if err != nil {
			return err
		}
		log, err := svc.RecordLogJSON(c.UserContext(), userID, c.Params("habit_id"), c.Body())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(log)
	})

	r.Delete("/habits/:habit_id/logs/:date", func(c *fiber.Ctx) error {
		userID, err := crud.OwnerParam(c, "user_id")
		if err != nil {
			return err
		}
		if err := svc.DeleteLog(c.UserContext(), userID, c.Params("habit_id"), c.Params("date")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	crud.Mount(r, svc.Service)
}
