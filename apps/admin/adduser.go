package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-lms/core/user"
)

func (cli *commandLine) addUser(name, email, typ, pwd string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Email:           email,
		Type:            typ,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q <%s>\n", usr.Type, usr.Name, usr.Email)
	return nil
}
