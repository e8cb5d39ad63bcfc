package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/user"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, svc course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create, rolesMiddleware(user.RoleAdmin, user.RoleInstitute))
	cg.GET("/:id", api.retrieve)

	ig := g.Group("/institutes")
	ig.GET("", api.queryInstitutes, rolesMiddleware(user.RoleAdmin, user.RoleInstitute))
	ig.POST("", api.createInstitute, rolesMiddleware(user.RoleAdmin))
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), viewer, filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	ok, err := api.svc.CanManageInstitute(ctx.Request().Context(), viewer, data.InstituteID)
	if err != nil {
		return errors.Wrap(err, "checking institute permissions")
	}
	if !ok {
		return errHttpForbidden
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) queryInstitutes(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	adminID := viewer.ID
	if viewer.IsAdmin() {
		adminID = ctx.QueryParam("admin_id")
	}

	insts, err := api.svc.InstitutesAdministeredBy(ctx.Request().Context(), adminID)
	if err != nil {
		return errors.Wrap(err, "querying institutes")
	}
	if insts == nil {
		insts = []course.Institute{}
	}
	return ctx.JSON(http.StatusOK, insts)
}

func (api *courseApi) createInstitute(ctx echo.Context) error {
	var data course.NewInstitute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitute")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inst, err := api.svc.CreateInstitute(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating institute")
	}
	return ctx.JSON(http.StatusCreated, inst)
}
