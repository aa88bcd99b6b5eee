package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
	"github.com/trezcool/fpms/core/user"
	logsvc "github.com/trezcool/fpms/services/logger"
	"github.com/trezcool/fpms/storage/database"
	sqlxrepos "github.com/trezcool/fpms/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db)),
		evalSvc: evaluation.NewService(sqlxrepos.NewSubmissionRepository(db), evaluation.Options{
			AcademicYear:            conf.Evaluation.AcademicYear,
			DepartmentScopedListing: conf.Evaluation.DepartmentScopedListing,
		}),
		validate:   validate,
		translator: translator,
		db:         db.DB,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
