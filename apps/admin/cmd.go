package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/fpms/core/evaluation"
	"github.com/trezcool/fpms/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	usrSvc     *user.Service
	evalSvc    *evaluation.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migration commands (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role ROLE [-department DEPT] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  lock -id ID | -faculty EMAIL -year YEAR - lock an approved submission")
	fmt.Fprintln(cli.out, "  report [-department DEPT] - print submissions totals")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", "", "One of faculty, hod, committee or admin.")
	addUserDept := addUserCmd.String("department", "", "Required for faculty members and HODs.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	lockCmd := flag.NewFlagSet("lock", flag.ContinueOnError)
	lockID := lockCmd.String("id", "", "The submission ID.")
	lockFaculty := lockCmd.String("faculty", "", "The faculty member's email, used with -year.")
	lockYear := lockCmd.String("year", "", "The academic year, e.g. 2024-25.")

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportDept := reportCmd.String("department", "", "Only report this department.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, lockCmd, reportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Name:            *addUserName,
			Email:           *addUserEmail,
			Role:            *addUserRole,
			Department:      *addUserDept,
			Password:        pwd,
			PasswordConfirm: pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "lock":
		if err := lockCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *lockID == "" && (*lockFaculty == "" || *lockYear == "") {
			lockCmd.Usage()
			return errHelp
		}
		return cli.lock(*lockID, *lockFaculty, *lockYear)

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.report(*reportDept)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
