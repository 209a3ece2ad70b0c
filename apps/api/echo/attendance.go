package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/attendance"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.POST("", api.mark, authorize("attendance", actionWrite))
	ag.GET("", api.query, authorize("attendance", actionRead))
	ag.GET("/:id", api.retrieve, authorize("attendance", actionRead))
	ag.DELETE("/:id", api.destroy, authorize("attendance", actionDelete))

	// summaries; students may read their own
	ag.GET("/student/:id/summary", api.studentSummary)
	ag.GET("/batch/:id/summary", api.batchSummary, authorize("attendance", actionRead))
}

// mark reconciles the batch's attendance for the day: one record per
// (batch, day), overwritten on re-mark.
func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.Mark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []attendance.Record{}, 0)
	}

	recs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return respondList(ctx, recs, len(recs))
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	studentID := ctx.Param("id")
	if !claims.IsAdmin && !claims.IsTeacher && claims.Subject != studentID {
		return errHttpForbidden
	}

	startDate, endDate, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.StudentSummary(ctx.Request().Context(), studentID, startDate, endDate)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sum)
}

func (api *attendanceApi) batchSummary(ctx echo.Context) error {
	startDate, endDate, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.BatchSummary(ctx.Request().Context(), ctx.Param("id"), startDate, endDate)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sum)
}

// bindDateRange parses optional RFC3339 start_date/end_date query params.
func bindDateRange(ctx echo.Context) (startDate, endDate time.Time, err error) {
	var rng struct {
		StartDate time.Time `query:"start_date"`
		EndDate   time.Time `query:"end_date"`
	}
	if err = ctx.Bind(&rng); err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "binding date range")
	}
	return rng.StartDate, rng.EndDate, nil
}
