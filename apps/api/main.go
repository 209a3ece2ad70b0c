package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ngoma/apps/api/echo"
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
	emailsvc "github.com/trezcool/ngoma/services/email"
	logsvc "github.com/trezcool/ngoma/services/logger"
	"github.com/trezcool/ngoma/storage/database"
	sqlxrepos "github.com/trezcool/ngoma/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	core.LoadConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		&core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	// repositories
	usrRepo := sqlxrepos.NewUserRepository(db)
	batchRepo := sqlxrepos.NewBatchRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	schedRepo := sqlxrepos.NewScheduleRepository(db)
	asgRepo := sqlxrepos.NewAssignmentRepository(db)
	examRepo := sqlxrepos.NewExamRepository(db)
	matRepo := sqlxrepos.NewMaterialRepository(db)
	payRepo := sqlxrepos.NewPaymentRepository(db)
	notifRepo := sqlxrepos.NewNotificationRepository(db)
	taskRepo := sqlxrepos.NewTaskRepository(db)
	statsComp := sqlxrepos.NewStatsComputer(db)

	// services
	notifSvc := notification.NewService(notifRepo)
	usrSvc := user.NewService(usrRepo, statsComp, mailSvc)
	batchSvc := batch.NewService(batchRepo, usrRepo)
	attSvc := attendance.NewService(attRepo, batchRepo, usrRepo)
	schedSvc := schedule.NewService(schedRepo, batchRepo, notifSvc, logger)
	asgSvc := assignment.NewService(asgRepo, batchRepo)
	examSvc := exam.NewService(examRepo, batchRepo)
	matSvc := material.NewService(matRepo, batchRepo)
	paySvc := payment.NewService(payRepo, batchRepo, usrRepo, notifSvc, mailSvc, logger)
	taskSvc := task.NewService(taskRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		fmt.Sprintf("%s:%d", core.Conf.Server.Host, core.Conf.Server.Port),
		&echoapi.Deps{
			Logger:          logger,
			Validate:        validate,
			UserSvc:         usrSvc,
			BatchSvc:        batchSvc,
			AttendanceSvc:   attSvc,
			ScheduleSvc:     schedSvc,
			AssignmentSvc:   asgSvc,
			ExamSvc:         examSvc,
			MaterialSvc:     matSvc,
			PaymentSvc:      paySvc,
			NotificationSvc: notifSvc,
			TaskSvc:         taskSvc,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(&core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(&core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
