package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/assignment"
	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/exam"
	"github.com/trezcool/ngoma/core/material"
	"github.com/trezcool/ngoma/core/notification"
	"github.com/trezcool/ngoma/core/payment"
	"github.com/trezcool/ngoma/core/schedule"
	"github.com/trezcool/ngoma/core/task"
	"github.com/trezcool/ngoma/core/user"
)

type (
	// Deps carries everything the API server needs; main wires it up.
	Deps struct {
		Logger         core.Logger
		Validate       *validator.Validate
		DisableReqLogs bool

		UserSvc         user.Service
		BatchSvc        batch.Service
		AttendanceSvc   attendance.Service
		ScheduleSvc     schedule.Service
		AssignmentSvc   assignment.Service
		ExamSvc         exam.Service
		MaterialSvc     material.Service
		PaymentSvc      payment.Service
		NotificationSvc notification.Service
		TaskSvc         task.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		addr       string
		deps       *Deps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(addr string, deps *Deps) Server {
	s := &server{
		addr:       addr,
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	appJWTConfig.SigningKey = []byte(core.Conf.SecretKey)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(api, jwt, s.deps.UserSvc, s.deps.Validate)
	registerBatchAPI(api, jwt, s.deps.BatchSvc, s.deps.UserSvc, s.deps.Validate)
	registerAttendanceAPI(api, jwt, s.deps.AttendanceSvc, s.deps.Validate)
	registerScheduleAPI(api, jwt, s.deps.ScheduleSvc, s.deps.Validate)
	registerAssignmentAPI(api, jwt, s.deps.AssignmentSvc, s.deps.Validate)
	registerExamAPI(api, jwt, s.deps.ExamSvc, s.deps.Validate)
	registerMaterialAPI(api, jwt, s.deps.MaterialSvc, s.deps.UserSvc, s.deps.Validate)
	registerPaymentAPI(api, jwt, s.deps.PaymentSvc, s.deps.Validate)
	registerNotificationAPI(api, jwt, s.deps.NotificationSvc, s.deps.Validate)
	registerTaskAPI(api, jwt, s.deps.TaskSvc, s.deps.Validate)
	registerUploadAPI(api, jwt)

	// serve uploaded files
	s.app.Static(core.Conf.Server.UploadBaseURL, core.Conf.Server.UploadDir)
}

func (s *server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown fakes a SIGTERM; typically called when an integrity-breaking
// error is caught and the server must stop taking traffic.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Ngoma API!")
}
