package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/mentor"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var mentorRepo mentor.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := inmemdb.NewDB()
	db.SetGroup(group.Group{
		ID:        "g1",
		Name:      "Cohort A",
		OwnerID:   "t1",
		CourseIDs: []string{"cA", "cB"},
	})
	mentorRepo = inmemdb.NewMentorRepository(db)

	// start CLI
	return &commandLine{
		mentorSvc: mentor.NewService(mentorRepo, inmemdb.NewGroupRepository(db)),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "closure", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_grantMentor(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"grantmentor"}, wantErr: errHelp},
		{name: "missing mentor", args: []string{"grantmentor", "-group", "g1", "-courses", "cA"}, wantErr: errHelp},
		{name: "missing courses", args: []string{"grantmentor", "-group", "g1", "-mentor", "m1"}, wantErr: errHelp},
		{name: "blank courses", args: []string{"grantmentor", "-group", "g1", "-mentor", "m1", "-courses", " , "}, wantErr: errHelp},
		{name: "group not found", args: []string{"grantmentor", "-group", "lol", "-mentor", "m1", "-courses", "cA"}, wantErr: group.ErrNotFound},
		{name: "grant", args: []string{"grantmentor", "-group", "g1", "-mentor", "m1", "-courses", "cA, cB"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				access, err := mentorRepo.GetAccess(context.Background(), "g1", "m1")
				if err != nil {
					t.Fatalf("GetAccess() failed, %v", err)
				}
				if len(access.CourseIDs) != 2 || access.CourseIDs[0] != "cA" || access.CourseIDs[1] != "cB" {
					t.Errorf("CourseIDs = %v, want [cA cB]", access.CourseIDs)
				}
				if access.UpdatedBy != cliActor.ID {
					t.Errorf("UpdatedBy = %q, want %q", access.UpdatedBy, cliActor.ID)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_revokeMentor(t *testing.T) {
	cli := setup(t)

	_, err := mentorRepo.UpsertAccess(context.Background(), mentor.Access{GroupID: "g1", MentorID: "m1", CourseIDs: []string{"cA"}})
	if err != nil {
		t.Fatalf("UpsertAccess() failed, %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"revokementor"}, wantErr: errHelp},
		{name: "missing mentor", args: []string{"revokementor", "-group", "g1"}, wantErr: errHelp},
		{name: "group not found", args: []string{"revokementor", "-group", "lol", "-mentor", "m1"}, wantErr: group.ErrNotFound},
		{name: "revoke", args: []string{"revokementor", "-group", "g1", "-mentor", "m1"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if _, err := mentorRepo.GetAccess(context.Background(), "g1", "m1"); err != mentor.ErrNoEntry {
					t.Errorf("GetAccess() error = %v, want %v", err, mentor.ErrNoEntry)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
