package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/payment"
)

type paymentApi struct {
	svc      payment.Service
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc payment.Service, validate *validator.Validate) {
	api := paymentApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.upsert, authorize("payments", actionWrite))
	pg.GET("", api.query, authorize("payments", actionRead))
	pg.GET("/summary", api.summary, authorize("payments", actionReport))
	pg.GET("/batch/:id/month/:month", api.batchMonth, authorize("payments", actionReport))
	pg.POST("/reminders", api.sendReminders, authorize("payments", actionWrite))
	pg.GET("/:id", api.retrieve, authorize("payments", actionRead))
	pg.DELETE("/:id", api.destroy, authorize("payments", actionDelete))
}

// upsert reconciles the (student, batch, month) ledger row: marking the same
// month twice overwrites rather than duplicates.
func (api *paymentApi) upsert(ctx echo.Context) error {
	var data payment.UpsertPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, rec)
}

// query lets staff browse the ledger; students are pinned to their own rows.
func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []payment.Record{}, 0)
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher {
		filter.StudentID = claims.Subject
	}

	recs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payment records")
	}
	if recs == nil {
		recs = []payment.Record{}
	}
	return respondList(ctx, recs, len(recs))
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher && rec.StudentID != claims.Subject {
		return errHttpNotFound
	}
	return respond(ctx, http.StatusOK, rec)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// batchMonth reports the full roster for a month: one row per enrolled
// student, recorded or not.
func (api *paymentApi) batchMonth(ctx echo.Context) error {
	rows, err := api.svc.BatchMonth(ctx.Request().Context(), ctx.Param("id"), ctx.Param("month"))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []payment.BatchMonthRow{}
	}
	return respondList(ctx, rows, len(rows))
}

func (api *paymentApi) summary(ctx echo.Context) error {
	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), *filter)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sum)
}

func (api *paymentApi) sendReminders(ctx echo.Context) error {
	var data ReminderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReminderRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.SendReminders(ctx.Request().Context(), data.BatchID, data.Month)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, ReminderResponse{Reminded: n})
}

type (
	ReminderRequest struct {
		BatchID string `json:"batch_id" validate:"required,uuid4"`
		Month   string `json:"month" validate:"required,yyyymm"`
	}

	ReminderResponse struct {
		Reminded int `json:"reminded"`
	}
)

func (rr *ReminderRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}
