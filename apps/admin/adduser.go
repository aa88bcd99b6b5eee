package main

import (
	"context"
	"fmt"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return core.TranslateValidationErrors(err, cli.translator)
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s user %s (%s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
