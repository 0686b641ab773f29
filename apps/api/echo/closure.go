package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/closure"
)

type closureApi struct {
	svc      closure.Service
	validate *validator.Validate
}

func registerClosureAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := closureApi{svc: deps.ClosureSvc, validate: deps.Validate}

	cg := g.Group("/groups/:gid/courses/:cid", jwt, teacherMiddleware())
	cg.GET("/closures", api.closureQuery)
	cg.POST("/closures", api.closureCloseAll)

	sg := cg.Group("/students/:sid")
	sg.POST("/closure", api.closureClose)
	sg.DELETE("/closure", api.closureReopen)
}

// Handlers

// closureQuery returns the grading grid of a (group, course) pair.
func (api *closureApi) closureQuery(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	rows, err := api.svc.Overview(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("cid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *closureApi) closureClose(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	data := new(closure.CloseGrade)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Close(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("cid"), ctx.Param("sid"), *data.FinalGrade)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *closureApi) closureReopen(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Reopen(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("cid"), ctx.Param("sid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *closureApi) closureCloseAll(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	data := new(closure.BulkClose)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.CloseAll(ctx.Request().Context(), actor, ctx.Param("gid"), ctx.Param("cid"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
