package crud

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
)

// OwnerParam reads a required query parameter
func OwnerParam(c *fiber.Ctx, name string) (string, error) {
	v := c.Query(name)
	if v == "" {
		return "", apperrors.Invalid("%s query parameter is required", name)
	}
	return v, nil
}

// Mount registers the five CRUD routes for svc on r
func Mount[T any, PT interface {
	*T
	Record
}](r fiber.Router, svc *Service[T, PT]) {
	e := svc.Entity()
	owner, id := e.OwnerKey(), e.IDKey()
	item := e.Path + "/:" + id

	r.Get(e.Path, func(c *fiber.Ctx) error {
		ownerID, err := OwnerParam(c, owner)
		if err != nil {
			return err
		}
		records, err := svc.List(c.UserContext(), ownerID, c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(records)
	})

	r.Get(item, func(c *fiber.Ctx) error {
		ownerID, err := OwnerParam(c, owner)
		if err != nil {
			return err
		}
		record, err := svc.Get(c.UserContext(), ownerID, c.Params(id))
		if err != nil {
			return err
		}
		return c.JSON(record)
	})

	r.Post(e.Path, func(c *fiber.Ctx) error {
		ownerID, err := OwnerParam(c, owner)
		if err != nil {
			return err
		}
		record, err := svc.Create(c.UserContext(), ownerID, c.Body())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	})

	r.Put(item, func(c *fiber.Ctx) error {
		ownerID, err := OwnerParam(c, owner)
		if err != nil {
			return err
		}
		record, err := svc.Update(c.UserContext(), ownerID, c.Params(id), c.Body())
		if err != nil {
			return err
		}
		return c.JSON(record)
	})

	r.Delete(item, func(c *fiber.Ctx) error {
		ownerID, err := OwnerParam(c, owner)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), ownerID, c.Params(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// ErrorHandler renders errors as {"detail": ...} with the status mapped from the error
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	status := apperrors.HTTPStatus(err)
	if status == fiber.StatusInternalServerError && !errors.Is(err, apperrors.ErrDeliveryFailed) {
		logger.Error("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"detail": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"detail": apperrors.Detail(err)})
}
