package course

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("course not found")
	ErrInstituteNotFound = errors.New("institute not found")
	ErrCodeExists        = errors.New("a course with this code already exists")
)

type (
	Repository interface {
		CreateInstitute(ctx context.Context, inst Institute, exec ...core.DBExecutor) (Institute, error)
		GetInstitute(ctx context.Context, id string, exec ...core.DBExecutor) (Institute, error)
		QueryInstitutes(ctx context.Context, adminID string, exec ...core.DBExecutor) ([]Institute, error)

		CheckCodeUniqueness(ctx context.Context, code string, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Course, error)
	}

	Service interface {
		CreateInstitute(ctx context.Context, ni NewInstitute) (Institute, error)
		GetInstitute(ctx context.Context, id string) (Institute, error)
		InstitutesAdministeredBy(ctx context.Context, userID string) ([]Institute, error)
		// CanManageInstitute reports whether viewer may add courses to the institute.
		CanManageInstitute(ctx context.Context, viewer user.Viewer, instituteID string) (bool, error)

		CheckCodeUniqueness(ctx context.Context, code string) error
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses lists the courses visible to viewer.
		QueryCourses(ctx context.Context, viewer user.Viewer, filter *QueryFilter) ([]Course, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

func (svc *service) CreateInstitute(ctx context.Context, ni NewInstitute) (Institute, error) {
	admin, err := svc.usrSvc.GetByID(ctx, ni.AdminID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Institute{}, core.NewValidationError(nil, core.FieldError{Field: "admin_id", Error: err.Error()})
		}
		return Institute{}, errors.Wrap(err, "finding institute admin")
	}
	if !(admin.IsInstitute() || admin.IsAdmin()) {
		return Institute{}, core.NewValidationError(nil, core.FieldError{
			Field: "admin_id", Error: "institute admin must have the institute or admin role",
		})
	}

	inst, err := svc.repo.CreateInstitute(ctx, Institute{
		Name:      ni.Name,
		AdminID:   admin.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Institute{}, errors.Wrap(err, "creating institute")
	}
	return inst, nil
}

func (svc *service) GetInstitute(ctx context.Context, id string) (Institute, error) {
	return svc.repo.GetInstitute(ctx, id)
}

func (svc *service) InstitutesAdministeredBy(ctx context.Context, userID string) ([]Institute, error) {
	return svc.repo.QueryInstitutes(ctx, userID)
}

func (svc *service) CanManageInstitute(ctx context.Context, viewer user.Viewer, instituteID string) (bool, error) {
	switch {
	case viewer.IsAdmin():
		return true, nil
	case viewer.IsInstitute():
		inst, err := svc.repo.GetInstitute(ctx, instituteID)
		if err != nil {
			if errors.Cause(err) == ErrInstituteNotFound {
				return false, nil
			}
			return false, errors.Wrap(err, "finding institute")
		}
		return inst.AdminID == viewer.ID, nil
	default:
		return false, nil
	}
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(nil, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
		return errors.Wrap(err, "checking course code uniqueness")
	}
	return nil
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(nc.Title, "title"),
		vala.StringNotEmpty(nc.InstituteID, "institute_id"),
	).Check(); err != nil {
		return Course{}, core.NewArgumentError(err)
	}

	if _, err := svc.repo.GetInstitute(ctx, nc.InstituteID); err != nil {
		if errors.Cause(err) == ErrInstituteNotFound {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "institute_id", Error: err.Error()})
		}
		return Course{}, errors.Wrap(err, "finding institute")
	}
	if nc.TeacherID != "" {
		teacher, err := svc.usrSvc.GetByID(ctx, nc.TeacherID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return Course{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: err.Error()})
			}
			return Course{}, errors.Wrap(err, "finding teacher")
		}
		if !teacher.IsTeacher() {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "user is not a teacher"})
		}
	}

	now := time.Now().UTC()
	crs, err := svc.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Code:        nc.Code,
		Description: nc.Description,
		InstituteID: nc.InstituteID,
		TeacherID:   nc.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) QueryCourses(ctx context.Context, viewer user.Viewer, filter *QueryFilter) ([]Course, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	switch {
	case viewer.IsInstitute():
		filter.AdminID = viewer.ID
	case viewer.IsTeacher():
		filter.TeacherID = viewer.ID
	}
	courses, err := svc.repo.QueryCourses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}
