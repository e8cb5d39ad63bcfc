package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/user"
	"github.com/padhaidunia/padhaidunia/storage/database"
)

var (
	migrateFunc = database.Migrate // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrSvc   user.Service
	crsSvc   course.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command against the database: up, down, status, redo, reset, version...")
	fmt.Println("  adduser -name NAME -role ROLE [-id ID] [-username USERNAME] [-email EMAIL] - create or update a user")
	fmt.Println("  addinstitute -name NAME -admin USER_ID - create an institute")
	fmt.Println("  addcourse -title TITLE -code CODE -institute INSTITUTE_ID [-teacher USER_ID] - create a course")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserID := addUserCmd.String("id", "", "The identity provider's user ID. Generated when empty.")
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of admin, institute, teacher, student.")

	addInstCmd := flag.NewFlagSet("addinstitute", flag.ContinueOnError)
	addInstName := addInstCmd.String("name", "", "The institute's name.")
	addInstAdmin := addInstCmd.String("admin", "", "The ID of the user administering the institute.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ContinueOnError)
	addCourseTitle := addCourseCmd.String("title", "", "The course title.")
	addCourseCode := addCourseCmd.String("code", "", "The unique course code.")
	addCourseDesc := addCourseCmd.String("description", "", "The course description.")
	addCourseInst := addCourseCmd.String("institute", "", "The ID of the institute offering the course.")
	addCourseTeacher := addCourseCmd.String("teacher", "", "The ID of the teacher of the course.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			ID:       *addUserID,
			Name:     *addUserName,
			Username: *addUserUname,
			Email:    *addUserEmail,
			Role:     *addUserRole,
		})

	case "addinstitute":
		if err := addInstCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addInstName == "" || *addInstAdmin == "" {
			addInstCmd.Usage()
			return errHelp
		}
		return cli.addInstitute(course.NewInstitute{Name: *addInstName, AdminID: *addInstAdmin})

	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseTitle == "" || *addCourseCode == "" || *addCourseInst == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(course.NewCourse{
			Title:       *addCourseTitle,
			Code:        *addCourseCode,
			Description: *addCourseDesc,
			InstituteID: *addCourseInst,
			TeacherID:   *addCourseTeacher,
		})

	default:
		cli.printUsage()
		return errHelp
	}
}
