package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

type quizApi struct {
	svc *quiz.Service
}

func registerQuizAPI(app *echo.Echo, auth authenticator, svc *quiz.Service) {
	api := quizApi{svc: svc}
	teachers := typeMiddleware(user.TypeTeacher, user.TypeAdmin)
	studentOnly := typeMiddleware(user.TypeStudent)

	qg := app.Group("/quizzes", auth.middlewares()...)
	qg.GET("/my-courses", api.myCourseQuizzes)
	qg.POST("", api.create, teachers)
	qg.GET("/:id", api.retrieve)

	sg := app.Group("/quiz-submissions", auth.middlewares()...)
	sg.POST("/submit", api.submit, studentOnly)
	sg.GET("/my", api.mySubmissions, studentOnly)
	sg.GET("", api.quizSubmissions, teachers)
	sg.GET("/:id", api.retrieveSubmission)
	sg.PATCH("/grade/:id", api.grade, teachers)
}

func (api *quizApi) myCourseQuizzes(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	quizzes, err := api.svc.MyCourseQuizzes(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	qz, err := api.svc.CreateQuiz(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	qz, err := api.svc.GetQuiz(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *quizApi) mySubmissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.MySubmissions(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *quizApi) quizSubmissions(ctx echo.Context) error {
	quizID := ctx.QueryParam("quiz_id")
	if quizID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "quiz_id", Error: "this field is required"})
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.QuizSubmissions(ctx.Request().Context(), usr, quizID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *quizApi) retrieveSubmission(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.GetSubmission(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *quizApi) grade(ctx echo.Context) error {
	var data quiz.GradeUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeUpdate")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.GradeSubmission(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
