package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/user"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(app *echo.Echo, auth authenticator, svc *course.Service) {
	api := courseApi{svc: svc}
	studentOnly := typeMiddleware(user.TypeStudent)

	cg := app.Group("/courses", auth.middlewares()...)
	cg.GET("", api.query)
	cg.POST("", api.create, typeMiddleware(user.TypeTeacher, user.TypeAdmin))
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/enroll", api.enroll, studentOnly)
	cg.GET("/:id/enrollment", api.enrollmentStatus, studentOnly)

	eg := app.Group("/enrollments", auth.middlewares()...)
	eg.GET("/my", api.myEnrollments, studentOnly)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := &course.QueryFilter{
		Search:    ctx.QueryParam("search"),
		Category:  ctx.QueryParam("category"),
		TeacherID: ctx.QueryParam("teacher_id"),
	}
	courses, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, course.OrderingFields...))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) enrollmentStatus(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	status, err := api.svc.EnrollmentStatus(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *courseApi) myEnrollments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enrs, err := api.svc.MyEnrollments(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrs)
}
