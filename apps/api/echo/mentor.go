package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/mentor"
)

type mentorApi struct {
	svc      mentor.Service
	validate *validator.Validate
}

func registerMentorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := mentorApi{svc: deps.MentorSvc, validate: deps.Validate}

	mg := g.Group("/groups/:gid", jwt, teacherMiddleware())
	mg.GET("/courses", api.courseList)

	ag := mg.Group("/mentors/:mid/courses")
	ag.GET("", api.accessRetrieve)
	ag.PUT("", api.accessGrant)
	ag.DELETE("", api.accessRevoke)
}

// Handlers

// courseList returns the courses the actor may see in the group.
func (api *mentorApi) courseList(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	courseIDs, err := api.svc.VisibleCourses(ctx.Request().Context(), actor, ctx.Param("gid"))
	if err != nil {
		return err
	}
	if courseIDs == nil {
		courseIDs = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"course_ids": courseIDs})
}

func (api *mentorApi) accessRetrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	access, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("mid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, access)
}

func (api *mentorApi) accessGrant(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	data := new(mentor.GrantAccess)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	access, err := api.svc.Grant(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("mid"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, access)
}

func (api *mentorApi) accessRevoke(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Revoke(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("mid")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
