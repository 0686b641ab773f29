package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) revokeMentor(groupID, mentorID string) error {
	if err := cli.mentorSvc.Revoke(context.Background(), cliActor, groupID, mentorID); err != nil {
		return err
	}
	fmt.Printf("mentor %s: unrestricted view of group %s restored\n", mentorID, groupID)
	return nil
}
