package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/user"
)

// Actions recognized by the access policy table.
const (
	actionRead   = "read"
	actionWrite  = "write"
	actionDelete = "delete"
	actionReport = "report"
)

var (
	staffRoles = []string{user.RoleAdmin, user.RoleTeacher}
	adminOnly  = []string{user.RoleAdmin}
	anyRole    = []string{user.RoleAdmin, user.RoleTeacher, user.RoleStudent}
)

// policies is the single source of truth for role-based access: it maps
// (resource, action) to the role prefixes allowed to perform it. Handlers
// never re-check roles; resources with per-object rules (own profile, own
// notifications, material ACLs) scope the data at the service layer instead.
var policies = map[string][]string{
	"users:read":    adminOnly,
	"users:write":   adminOnly,
	"users:delete":  adminOnly,
	"roles:read":    adminOnly,
	"stats:write":   adminOnly,
	"batches:read":  anyRole,
	"batches:write": adminOnly,
	// includes roster management
	"batches:delete":       adminOnly,
	"attendance:read":      staffRoles,
	"attendance:write":     staffRoles,
	"attendance:delete":    adminOnly,
	"schedules:read":       anyRole,
	"schedules:write":      staffRoles,
	"schedules:delete":     staffRoles,
	"assignments:read":     anyRole,
	"assignments:write":    staffRoles,
	"assignments:delete":   staffRoles,
	"submissions:write":    []string{user.RoleStudent},
	"submissions:read":     staffRoles,
	"grades:write":         staffRoles,
	"exams:read":           anyRole,
	"exams:write":          staffRoles,
	"exams:delete":         staffRoles,
	"materials:read":       anyRole,
	"materials:write":      staffRoles,
	"materials:delete":     staffRoles,
	"payments:read":        anyRole,
	"payments:write":       adminOnly,
	"payments:delete":      adminOnly,
	// ledger-wide reporting (summary, batch/month roster)
	"payments:report":      adminOnly,
	"notifications:read":   anyRole,
	"notifications:write":  adminOnly,
	"notifications:delete": adminOnly,
	"tasks:read":           adminOnly,
	"tasks:write":          adminOnly,
	"tasks:delete":         adminOnly,
	"uploads:write":        staffRoles,
}

// authorize gates a route on the policy table entry for (resource, action).
func authorize(resource, action string) echo.MiddlewareFunc {
	allowed := policies[resource+":"+action]

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, prefix := range allowed {
				if claims.hasRolePrefix(prefix) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// ctxUserOrAdminMiddleware loads the :id user into the context when the
// caller is that user or an admin; others get a 404 rather than a 403 so the
// route does not leak account existence.
func ctxUserOrAdminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
