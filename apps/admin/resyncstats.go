package main

import (
	"context"

	"github.com/trezcool/ngoma/core/user"
)

// resyncStats recomputes the denormalized Stats snapshot from the attendance,
// submission and exam source rows; for one student or for all of them.
func (cli *commandLine) resyncStats(studentID string) error {
	ctx := context.Background()

	var students []user.User
	if studentID != "" {
		usr, err := cli.usrRepo.GetUserByID(ctx, studentID)
		if err != nil {
			return err
		}
		students = append(students, usr)
	} else {
		var err error
		students, err = cli.usrRepo.FilterUsers(ctx, user.QueryFilter{Roles: user.StudentRoles})
		if err != nil {
			return err
		}
	}

	for _, usr := range students {
		stats, err := cli.stats.ComputeUserStats(ctx, usr.ID)
		if err != nil {
			return err
		}
		if _, err = cli.usrRepo.UpdateUserStats(ctx, usr.ID, stats); err != nil {
			return err
		}
		logger.Printf("resynced %s: attendance=%d%% assignments=%d avg=%.2f",
			usr.Username, stats.AttendancePct, stats.AssignmentsCompleted, stats.AverageScore)
	}
	return nil
}
