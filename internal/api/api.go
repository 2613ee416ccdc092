// Package api assembles the fiber application serving the growth tracker REST API.
package api

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/crud"
	"github.com/julianstephens/growthtrack/internal/habits"
)

type Options struct {
	// Service selects what is mounted: one of ServiceNames or ServiceAll
	Service     string
	CORSOrigins []string
}

// New builds the app with the selected services mounted under /api/v1
func New(svcs *Services, opts Options) (*fiber.App, error) {
	service := opts.Service
	if service == "" {
		service = ServiceAll
	}
	if service != ServiceAll && !slices.Contains(ServiceNames, service) {
		return nil, fmt.Errorf("unknown service %q (expected one of %s, %s)", service, strings.Join(ServiceNames, ", "), ServiceAll)
	}

	app := fiber.New(fiber.Config{
		AppName:               constants.AppName,
		ErrorHandler:          crud.ErrorHandler,
		DisableStartupMessage: true,
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(requestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "api": service})
	})

	v1 := app.Group(constants.APIPrefix)
	mounted := func(name string) bool { return service == ServiceAll || service == name }
	if mounted(ServiceGoals) {
		crud.Mount(v1, svcs.Goals)
	}
	if mounted(ServiceRoadmaps) {
		crud.Mount(v1, svcs.Roadmaps)
	}
	if mounted(ServiceSkills) {
		crud.Mount(v1, svcs.Skills)
	}
	if mounted(ServiceHabits) {
		habits.Mount(v1, svcs.Habits)
	}

	return app, nil
}
