package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/schedule"
)

type scheduleApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc schedule.Service, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/class-schedules", jwt)
	sg.POST("", api.create, authorize("schedules", actionWrite))
	sg.GET("", api.query, authorize("schedules", actionRead))
	sg.GET("/:id", api.retrieve, authorize("schedules", actionRead))
	sg.PUT("/:id", api.update, authorize("schedules", actionWrite))
	sg.DELETE("/:id", api.destroy, authorize("schedules", actionDelete))
	sg.POST("/:id/publish", api.publish, authorize("schedules", actionWrite))
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cs, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, cs)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []schedule.ClassSchedule{}, 0)
	}

	// students only see published sessions
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher {
		published := true
		filter.IsPublished = &published
	}

	schedules, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying class schedules")
	}
	if schedules == nil {
		schedules = []schedule.ClassSchedule{}
	}
	return respondList(ctx, schedules, len(schedules))
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	cs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, cs)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, cs)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// publish toggles the published flag; publishing notifies every enrolled
// student of the batch.
func (api *scheduleApi) publish(ctx echo.Context) error {
	var data PublishRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PublishRequest")
	}

	publish := true
	if data.Publish != nil {
		publish = *data.Publish
	}

	cs, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"), publish)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, cs)
}

// PublishRequest defaults to publishing when the body is empty.
type PublishRequest struct {
	Publish *bool `json:"publish"`
}
