package main

import (
	"context"
	"fmt"

	"github.com/trezcool/fpms/core/evaluation"
)

var systemActor = evaluation.Actor{ID: "system", Role: evaluation.RoleSystem}

// lock finalizes an approved submission, found by ID or by (faculty email, academic year).
func (cli *commandLine) lock(id, facultyEmail, year string) error {
	ctx := context.Background()
	if id == "" {
		usr, err := cli.usrSvc.GetByEmail(ctx, facultyEmail)
		if err != nil {
			return err
		}
		sub, err := cli.evalSvc.GetForYear(ctx, systemActor, usr.ID, year)
		if err != nil {
			return err
		}
		id = sub.ID
	}

	sub, err := cli.evalSvc.Lock(ctx, systemActor, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "submission %s locked (total %d)\n", sub.ID, sub.TotalScore)
	return nil
}
