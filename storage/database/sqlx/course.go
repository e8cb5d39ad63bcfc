package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/course"
)

var (
	instituteColumns = []string{"id", "name", "admin_id", "created_at"}
	courseColumns    = []string{"id", "title", "code", "description", "institute_id", "teacher_id", "created_at", "updated_at"}
)

type instituteRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	AdminID   string    `db:"admin_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (row instituteRow) institute() course.Institute {
	return course.Institute{ID: row.ID, Name: row.Name, AdminID: row.AdminID, CreatedAt: row.CreatedAt.UTC()}
}

type courseRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Code        string      `db:"code"`
	Description string      `db:"description"`
	InstituteID string      `db:"institute_id"`
	TeacherID   null.String `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (row courseRow) course() course.Course {
	return course.Course{
		ID:          row.ID,
		Title:       row.Title,
		Code:        row.Code,
		Description: row.Description,
		InstituteID: row.InstituteID,
		TeacherID:   row.TeacherID.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	baseRepository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{baseRepository{db: db}}
}

func (repo *courseRepository) CreateInstitute(ctx context.Context, inst course.Institute, exec ...core.DBExecutor) (course.Institute, error) {
	inst.ID = uuid.New().String()
	query, args, err := psql.Insert("institutes").Columns(instituteColumns...).
		Values(inst.ID, inst.Name, inst.AdminID, inst.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return course.Institute{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		return course.Institute{}, errors.Wrap(err, "inserting institute")
	}
	return inst, nil
}

func (repo *courseRepository) GetInstitute(ctx context.Context, id string, exec ...core.DBExecutor) (course.Institute, error) {
	if !isUUID(id) {
		return course.Institute{}, course.ErrInstituteNotFound
	}
	query, args, err := psql.Select(instituteColumns...).From("institutes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return course.Institute{}, errors.Wrap(err, "building institute query")
	}
	var row instituteRow
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &row, query, args...); err != nil {
		return course.Institute{}, trapNoRowsErr(err, course.ErrInstituteNotFound, "finding institute")
	}
	return row.institute(), nil
}

func (repo *courseRepository) QueryInstitutes(ctx context.Context, adminID string, exec ...core.DBExecutor) ([]course.Institute, error) {
	qs := psql.Select(instituteColumns...).From("institutes").OrderBy("name ASC")
	if adminID != "" {
		qs = qs.Where(sq.Eq{"admin_id": adminID})
	}
	query, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building institutes query")
	}
	var rows []instituteRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying institutes")
	}

	insts := make([]course.Institute, 0, len(rows))
	for _, row := range rows {
		insts = append(insts, row.institute())
	}
	return insts, nil
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, code string, exec ...core.DBExecutor) error {
	query, args, err := psql.Select("COUNT(*)").From("courses").Where("LOWER(code) = LOWER(?)", code).ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var cnt int
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &cnt, query, args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if cnt > 0 {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()
	query, args, err := psql.Insert("courses").Columns(courseColumns...).
		Values(
			crs.ID, crs.Title, crs.Code, crs.Description, crs.InstituteID,
			null.NewString(crs.TeacherID, crs.TeacherID != ""), crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "courses_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if !isUUID(id) {
		return course.Course{}, course.ErrNotFound
	}
	query, args, err := psql.Select(courseColumns...).From("courses").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building course query")
	}
	var row courseRow
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &row, query, args...); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	qs := psql.Select(courseColumns...).From("courses").OrderBy("title ASC", "id ASC")

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			qs = qs.Where(sq.Or{sq.ILike{"title": val}, sq.ILike{"code": val}})
		}
		if len(filter.InstituteIDs) > 0 {
			qs = qs.Where(sq.Eq{"institute_id": validUUIDs(filter.InstituteIDs)})
		}
		if filter.TeacherID != "" {
			qs = qs.Where(sq.Eq{"teacher_id": filter.TeacherID})
		}
		if filter.AdminID != "" {
			qs = qs.Where("institute_id IN (SELECT id FROM institutes WHERE admin_id = ?)", filter.AdminID)
		}
	}

	query, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building courses query")
	}
	var rows []courseRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}
