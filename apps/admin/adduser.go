package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/padhaidunia/padhaidunia/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	nu.Clean()
	if nu.ID == "" {
		nu.ID = uuid.NewString()
	}
	if err := cli.validate.Struct(nu); err != nil {
		return err
	}

	usr, created, err := cli.usrSvc.Sync(ctx, nu)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created user %s (%s)\n", usr.ID, usr.Role)
	} else {
		fmt.Printf("updated user %s (%s)\n", usr.ID, usr.Role)
	}
	return nil
}
