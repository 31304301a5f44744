package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/user"
)

func (cli *commandLine) courses(ctx context.Context, args []string) error {
	fs := cli.flagSet("courses")
	search := fs.String("search", "", "Filter by title or description.")
	category := fs.String("category", "", "Filter by category.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	courses, err := cli.client.Courses(ctx, course.QueryFilter{Search: *search, Category: *category}, "title")
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Fprintln(cli.out, "No courses found.")
		return nil
	}

	enrolled := make(map[string]bool)
	if cli.currentUser().IsStudent() {
		enrs, err := cli.client.MyEnrollments(ctx)
		if err != nil {
			return err
		}
		for _, enr := range enrs {
			enrolled[enr.CourseID] = true
		}
	}

	tw := newTable(cli.out, "ID", "TITLE", "CATEGORY", "TEACHER", "ENROLLED")
	for _, crs := range courses {
		mark := ""
		if enrolled[crs.ID] {
			mark = "yes"
		}
		row(tw, crs.ID, crs.Title, crs.Category, crs.TeacherName, mark)
	}
	return tw.Flush()
}

func (cli *commandLine) enroll(ctx context.Context, args []string) error {
	fs := cli.flagSet("enroll")
	courseID := fs.String("course", "", "The course to enroll in.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *courseID == "" {
		fs.Usage()
		return errHelp
	}
	if err := cli.requireRole(user.TypeStudent); err != nil {
		return err
	}

	status, err := cli.client.EnrollmentStatus(ctx, *courseID)
	if err != nil {
		return err
	}
	if status.Enrolled {
		fmt.Fprintln(cli.out, "You are already enrolled in this course.")
		return nil
	}
	if _, err = cli.client.Enroll(ctx, *courseID); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Enrolled!")
	return nil
}
