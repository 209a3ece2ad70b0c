package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
)

type batchApi struct {
	svc      batch.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerBatchAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc batch.Service, usrSvc user.Service, validate *validator.Validate) {
	api := batchApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	bg := g.Group("/batches", jwt)
	bg.POST("", api.create, authorize("batches", actionWrite))
	bg.GET("", api.query, authorize("batches", actionRead))
	bg.GET("/:id", api.retrieve, authorize("batches", actionRead))
	bg.PUT("/:id", api.update, authorize("batches", actionWrite))
	bg.DELETE("/:id", api.destroy, authorize("batches", actionDelete))

	// roster management
	bg.POST("/:id/students", api.addStudent, authorize("batches", actionWrite))
	bg.DELETE("/:id/students/:studentID", api.removeStudent, authorize("batches", actionWrite))

	// resync recomputes the Stats snapshot of every enrolled student
	bg.POST("/:id/resync", api.resync, authorize("stats", actionWrite))
}

func (api *batchApi) create(ctx echo.Context) error {
	var data batch.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return respond(ctx, http.StatusCreated, b)
}

func (api *batchApi) query(ctx echo.Context) error {
	filter := new(batch.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []batch.Batch{}, 0)
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	batches, err := api.svc.Filter(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []batch.Batch{}
	}
	return respondList(ctx, batches, len(batches))
}

func (api *batchApi) retrieve(ctx echo.Context) error {
	b, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, b)
}

func (api *batchApi) update(ctx echo.Context) error {
	var data batch.UpdateBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, b)
}

func (api *batchApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *batchApi) addStudent(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.AddStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		switch errors.Cause(err) {
		case batch.ErrBatchFull, batch.ErrAlreadyEnrolled, batch.ErrNotStudent:
			return core.NewValidationError(err)
		}
		return err
	}
	return respond(ctx, http.StatusOK, b)
}

func (api *batchApi) removeStudent(ctx echo.Context) error {
	b, err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentID"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, b)
}

func (api *batchApi) resync(ctx echo.Context) error {
	b, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	for _, studentID := range b.StudentIDs {
		if _, err := api.usrSvc.ResyncStats(ctx.Request().Context(), studentID); err != nil {
			return errors.Wrapf(err, "resyncing stats for student %s", studentID)
		}
	}
	return respondMessage(ctx, http.StatusOK, "student stats resynced")
}

type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(er)
}
