package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mentor"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sql.DB
	mentorSvc mentor.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - manage database migrations")
	fmt.Println("  grantmentor -group GROUP -mentor MENTOR -courses ID[,ID...] - limit a mentor's view of a group to the given courses")
	fmt.Println("  revokementor -group GROUP -mentor MENTOR - restore a mentor's unrestricted view of a group")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	grantCmd := flag.NewFlagSet("grantmentor", flag.ExitOnError)
	grantGroup := grantCmd.String("group", "", "The group ID.")
	grantMentor := grantCmd.String("mentor", "", "The mentor's user ID.")
	grantCourses := grantCmd.String("courses", "", "Comma-separated IDs of the courses the mentor may see.")

	revokeCmd := flag.NewFlagSet("revokementor", flag.ExitOnError)
	revokeGroup := revokeCmd.String("group", "", "The group ID.")
	revokeMentor := revokeCmd.String("mentor", "", "The mentor's user ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "grantmentor":
		if err := grantCmd.Parse(args[2:]); err != nil {
			return err
		}
		courseIDs := splitIDs(*grantCourses)
		if *grantGroup == "" || *grantMentor == "" || len(courseIDs) == 0 {
			grantCmd.Usage()
			return errHelp
		}
		return cli.grantMentor(*grantGroup, *grantMentor, courseIDs)
	case "revokementor":
		if err := revokeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *revokeGroup == "" || *revokeMentor == "" {
			revokeCmd.Usage()
			return errHelp
		}
		return cli.revokeMentor(*revokeGroup, *revokeMentor)
	default:
		cli.printUsage()
		return errHelp
	}
}

func splitIDs(s string) []string {
	ids := make([]string, 0)
	for _, id := range strings.Split(s, ",") {
		if id = core.CleanString(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
