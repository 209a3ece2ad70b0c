package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/notification"
)

type notificationApi struct {
	svc      notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc notification.Service, validate *validator.Validate) {
	api := notificationApi{
		svc:      svc,
		validate: validate,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query, authorize("notifications", actionRead))
	ng.GET("/unread-count", api.unreadCount, authorize("notifications", actionRead))
	ng.POST("/broadcast", api.broadcast, authorize("notifications", actionWrite))
	ng.POST("/read-all", api.markAllRead, authorize("notifications", actionRead))
	ng.POST("/:id/read", api.markRead, authorize("notifications", actionRead))
	ng.DELETE("/:id", api.destroy, authorize("notifications", actionDelete))
}

// query returns the caller's own notifications, newest first.
func (api *notificationApi) query(ctx echo.Context) error {
	filter := new(notification.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondList(ctx, []notification.Notification{}, 0)
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter.UserID = claims.Subject

	notifs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return respondList(ctx, notifs, len(notifs))
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, UnreadCountResponse{Unread: n})
}

// broadcast fans one message out to a list of users.
func (api *notificationApi) broadcast(ctx echo.Context) error {
	var data notification.Broadcast
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Broadcast")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notifs, err := api.svc.FanOut(ctx.Request().Context(), data, notification.TypeBroadcast)
	if err != nil {
		return err
	}
	return respondList(ctx, notifs, len(notifs))
}

// markRead only touches the caller's own rows; ids of other users are
// silently skipped.
func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "notification marked as read")
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), claims.Subject); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "all notifications marked as read")
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
