package main

import "github.com/trezcool/masomo-lms/storage/database"

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLEngine
	}
	return database.Migrate(cli.db, args[0], args[1:]...)
}
