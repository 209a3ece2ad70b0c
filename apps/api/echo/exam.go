package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/exam"
)

type examApi struct {
	svc      exam.Service
	validate *validator.Validate
}

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc exam.Service, validate *validator.Validate) {
	api := examApi{
		svc:      svc,
		validate: validate,
	}

	eg := g.Group("/exams", jwt)
	eg.POST("", api.create, authorize("exams", actionWrite))
	eg.GET("", api.query, authorize("exams", actionRead))
	eg.GET("/:id", api.retrieve, authorize("exams", actionRead))
	eg.PUT("/:id", api.update, authorize("exams", actionWrite))
	eg.DELETE("/:id", api.destroy, authorize("exams", actionDelete))

	// students may read their own stats
	eg.GET("/student/:id/stats", api.studentStats)
}

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	e, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, e)
}

func (api *examApi) query(ctx echo.Context) error {
	filter := new(exam.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []exam.Exam{}, 0)
	}

	// students only see their own published results
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher {
		published := true
		filter.StudentID = claims.Subject
		filter.IsPublished = &published
	}

	exams, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return respondList(ctx, exams, len(exams))
}

func (api *examApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher {
		if e.StudentID != claims.Subject || !e.IsPublished {
			return errHttpNotFound
		}
	}
	return respond(ctx, http.StatusOK, e)
}

func (api *examApi) update(ctx echo.Context) error {
	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, e)
}

func (api *examApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *examApi) studentStats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	studentID := ctx.Param("id")
	if !claims.IsAdmin && !claims.IsTeacher && claims.Subject != studentID {
		return errHttpForbidden
	}

	stats, err := api.svc.StudentStats(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, stats)
}
