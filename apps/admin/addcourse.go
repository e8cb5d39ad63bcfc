package main

import (
	"context"
	"fmt"

	"github.com/padhaidunia/padhaidunia/core/course"
)

func (cli *commandLine) addInstitute(ni course.NewInstitute) error {
	if err := ni.Validate(cli.validate); err != nil {
		return err
	}
	inst, err := cli.crsSvc.CreateInstitute(context.Background(), ni)
	if err != nil {
		return err
	}
	fmt.Printf("created institute %s\n", inst.ID)
	return nil
}

func (cli *commandLine) addCourse(nc course.NewCourse) error {
	ctx := context.Background()
	if err := nc.Validate(ctx, cli.validate, cli.crsSvc); err != nil {
		return err
	}
	crs, err := cli.crsSvc.CreateCourse(ctx, nc)
	if err != nil {
		return err
	}
	fmt.Printf("created course %s\n", crs.ID)
	return nil
}
