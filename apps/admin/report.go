package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/trezcool/fpms/core/evaluation"
)

var errDepartmentNotScoped = errors.New(
	"department scoped listing is disabled (<ENV>_EVALUATION_DEPARTMENTSCOPEDLISTING); drop -department to report every department",
)

// report prints one line per submission with its module scores and total.
func (cli *commandLine) report(department string) error {
	ctx := context.Background()
	department = strings.TrimSpace(department)
	if department != "" && !cli.evalSvc.DepartmentScopedListing() {
		return errDepartmentNotScoped
	}

	var subs []evaluation.Submission
	var err error
	if department == "" {
		subs, err = cli.evalSvc.ListAll(ctx)
	} else {
		subs, err = cli.evalSvc.ListByDepartment(ctx, department)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "ID\tFACULTY\tDEPARTMENT\tYEAR\tSTATUS")
	for _, def := range evaluation.Catalog() {
		fmt.Fprintf(w, "\t%s", def.ID)
	}
	fmt.Fprintln(w, "\tTOTAL")

	for _, sub := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s", sub.ID, sub.FacultyID, sub.Department, sub.AcademicYear, sub.Status)
		for _, def := range evaluation.Catalog() {
			score := 0
			if mod := sub.Module(def.ID); mod != nil {
				score = mod.Score
			}
			fmt.Fprintf(w, "\t%d", score)
		}
		fmt.Fprintf(w, "\t%d/%d\n", sub.TotalScore, evaluation.CatalogMaxPoints())
	}
	return w.Flush()
}
