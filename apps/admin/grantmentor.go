package main

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core/mentor"
	"github.com/trezcool/darasa/core/user"
)

// cliActor stands in for the operator running the CLI.
var cliActor = user.User{ID: "admin-cli", Name: "Admin CLI", Roles: []string{user.RoleAdmin}}

func (cli *commandLine) grantMentor(groupID, mentorID string, courseIDs []string) error {
	access, err := cli.mentorSvc.Grant(context.Background(), cliActor, groupID, mentorID, mentor.GrantAccess{CourseIDs: courseIDs})
	if err != nil {
		return err
	}
	fmt.Printf("mentor %s: view of group %s limited to %d course(s)\n", access.MentorID, access.GroupID, len(access.CourseIDs))
	return nil
}
