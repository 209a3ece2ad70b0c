package user

import (
	"context"

	"github.com/trezcool/ngoma/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose password reset mail is sent synchronously.
func NewServiceMock(repo Repository, stats StatsComputer, mailSvc core.EmailService) Service {
	initTokenGen()
	return &serviceMock{
		service: service{
			repo:    repo,
			stats:   stats,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
