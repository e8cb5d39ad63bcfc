package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateInstitute(_ context.Context, inst course.Institute, exec ...core.DBExecutor) (course.Institute, error) {
	defer repo.db.lockWrite(exec)()

	inst.ID = uuid.New().String()
	repo.db.institutes[inst.ID] = inst
	return inst, nil
}

func (repo *courseRepository) GetInstitute(_ context.Context, id string, _ ...core.DBExecutor) (course.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if inst, ok := repo.db.institutes[id]; ok {
		return inst, nil
	}
	return course.Institute{}, course.ErrInstituteNotFound
}

func (repo *courseRepository) QueryInstitutes(_ context.Context, adminID string, _ ...core.DBExecutor) ([]course.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	insts := make([]course.Institute, 0)
	for _, inst := range repo.db.institutes {
		if adminID == "" || inst.AdminID == adminID {
			insts = append(insts, inst)
		}
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name < insts[j].Name })
	return insts, nil
}

func (repo *courseRepository) CheckCodeUniqueness(_ context.Context, code string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.db.courses {
		if strings.EqualFold(crs.Code, code) {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	defer repo.db.lockWrite(exec)()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.db.courses {
		if filter == nil || repo.match(crs, filter) {
			courses = append(courses, crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}

// match expects the read lock to be held.
func (repo *courseRepository) match(crs course.Course, filter *course.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(crs.Title), s) || strings.Contains(strings.ToLower(crs.Code), s)) {
			return false
		}
	}
	if len(filter.InstituteIDs) > 0 && !core.StringsContain(filter.InstituteIDs, crs.InstituteID) {
		return false
	}
	if filter.TeacherID != "" && crs.TeacherID != filter.TeacherID {
		return false
	}
	if filter.AdminID != "" && repo.db.institutes[crs.InstituteID].AdminID != filter.AdminID {
		return false
	}
	return true
}
