package tests

import (
	"testing"
	"time"

	"github.com/padhaidunia/padhaidunia/core/course"
	"github.com/padhaidunia/padhaidunia/core/user"
	"github.com/padhaidunia/padhaidunia/tests"
)

type school struct {
	admin, instAdmin, otherInstAdmin user.User
	teacher, teacher2                user.User
	student, student2                user.User
	inactive                         user.User

	inst, otherInst course.Institute
	c1, c2, c3      course.Course // c3 belongs to otherInst
}

// seedSchool resets the DB and creates two institutes with their staff, students and courses.
func seedSchool(t *testing.T) school {
	t.Helper()
	resetDB()

	now := time.Now()
	var s school
	s.admin = testutil.CreateUser(t, usrRepo, "Root Admin", "root", "root@test.in", user.RoleAdmin, true, now.Add(-6*time.Hour))
	s.instAdmin = testutil.CreateUser(t, usrRepo, "Sunrise Academy", "sunrise", "office@sunrise.test.in", user.RoleInstitute, true, now.Add(-5*time.Hour))
	s.otherInstAdmin = testutil.CreateUser(t, usrRepo, "Lotus School", "lotus", "office@lotus.test.in", user.RoleInstitute, true, now.Add(-5*time.Hour))
	s.teacher = testutil.CreateUser(t, usrRepo, "Meera Rao", "meera", "meera@test.in", user.RoleTeacher, true, now.Add(-4*time.Hour))
	s.teacher2 = testutil.CreateUser(t, usrRepo, "Arjun Das", "arjun", "arjun@test.in", user.RoleTeacher, true, now.Add(-3*time.Hour))
	s.student = testutil.CreateUser(t, usrRepo, "Asha Kumari", "asha", "asha@test.in", user.RoleStudent, true, now.Add(-2*time.Hour))
	s.student2 = testutil.CreateUser(t, usrRepo, "Ravi Singh", "ravi", "ravi@test.in", user.RoleStudent, true, now.Add(-1*time.Hour))
	s.inactive = testutil.CreateUser(t, usrRepo, "Old Timer", "oldtimer", "old@test.in", user.RoleTeacher, false, now)

	s.inst = testutil.CreateInstitute(t, crsRepo, "Sunrise Academy", s.instAdmin.ID)
	s.otherInst = testutil.CreateInstitute(t, crsRepo, "Lotus School", s.otherInstAdmin.ID)
	s.c1 = testutil.CreateCourse(t, crsRepo, "Algebra I", "ALG1", s.inst.ID, s.teacher.ID)
	s.c2 = testutil.CreateCourse(t, crsRepo, "Physics", "PHY1", s.inst.ID, s.teacher2.ID)
	s.c3 = testutil.CreateCourse(t, crsRepo, "Hindi", "HIN1", s.otherInst.ID, "")
	return s
}
