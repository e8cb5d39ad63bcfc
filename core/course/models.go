package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/padhaidunia/padhaidunia/core"
)

type Institute struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	InstituteID string    `json:"institute_id"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewInstitute struct {
	Name    string `json:"name" validate:"required,notblank"`
	AdminID string `json:"admin_id" validate:"required"`
}

func (ni *NewInstitute) Validate(validate *validator.Validate) error {
	ni.Name = core.CleanString(ni.Name)
	ni.AdminID = core.CleanString(ni.AdminID)
	return validate.Struct(ni)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required,notblank"`
	Code        string `json:"code" validate:"required,max=32,alphanum_"`
	Description string `json:"description"`
	InstituteID string `json:"institute_id" validate:"required,uuid"`
	TeacherID   string `json:"teacher_id"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	nc.InstituteID = core.CleanString(nc.InstituteID)
	nc.TeacherID = core.CleanString(nc.TeacherID)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

type QueryFilter struct {
	Search       string   `query:"search"`
	InstituteIDs []string `query:"institute_id"`
	TeacherID    string   `query:"teacher_id"`
	AdminID      string   `query:"-"` // courses of institutes administered by AdminID
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TeacherID = core.CleanString(qf.TeacherID)
}
