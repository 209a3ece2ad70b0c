package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/material"
	"github.com/trezcool/ngoma/core/user"
)

type materialApi struct {
	svc      material.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerMaterialAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc material.Service, usrSvc user.Service, validate *validator.Validate) {
	api := materialApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	mg := g.Group("/materials", jwt)
	mg.POST("", api.create, authorize("materials", actionWrite))
	mg.GET("", api.query, authorize("materials", actionRead))
	mg.GET("/:id", api.retrieve, authorize("materials", actionRead))
	mg.PUT("/:id", api.update, authorize("materials", actionWrite))
	mg.DELETE("/:id", api.destroy, authorize("materials", actionDelete))
	mg.POST("/:id/download", api.download, authorize("materials", actionRead))
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, m)
}

// query scopes results to the caller: staff see everything, students see
// public materials plus those ACL'd to their batches.
func (api *materialApi) query(ctx echo.Context) error {
	filter := new(material.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []material.Material{}, 0)
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	materials, err := api.svc.FilterFor(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if materials == nil {
		materials = []material.Material{}
	}
	return respondList(ctx, materials, len(materials))
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, m)
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, m)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// download checks access and bumps the download counter; the client follows
// the returned file URL.
func (api *materialApi) download(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Download(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == material.ErrAccessDenied {
			return errHttpForbidden
		}
		return err
	}
	return respond(ctx, http.StatusOK, m)
}
