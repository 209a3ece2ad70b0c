package main

import (
	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/storage/database"
)

var (
	migrateRunFunc = database.RunMigrations // mockable
	createDBFunc   = database.CreateIfNotExist
)

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateRunFunc(args[0], cli.db.DB, arguments...)
}

func (cli *commandLine) createDB() error {
	return createDBFunc(&core.Conf)
}
