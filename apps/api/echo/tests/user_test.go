package tests

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padhaidunia/padhaidunia/core/user"
	"github.com/padhaidunia/padhaidunia/tests"
)

func Test_userApi_query(t *testing.T) {
	resetDB()

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/api/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", user.RoleAdmin, true, now.Add(1*time.Hour))
	inst := testutil.CreateUser(t, usrRepo, "Sunrise", "sunrise", "sunrise@test.in", user.RoleInstitute, true, now.Add(2*time.Hour))
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.in", user.RoleTeacher, true, now.Add(3*time.Hour))
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", user.RoleStudent, true, now.Add(4*time.Hour))
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.in", user.RoleStudent, false, now.Add(5*time.Hour)) // 😂

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	runHTTPTests(t, []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", path: "/api/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Teachers are not allowed either", path: "/api/users", token: getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/api/users", token: adminToken, wantData: marchallList(t, admin, student, naughty, inst, teacher)},
		{name: "Institutes can list", path: path("", "", nil, user.RoleTeacher), token: getToken(t, inst), wantData: marchallList(t, teacher)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: empty},
		{name: "search=TEST.IN", path: path("HERO", "", nil), token: adminToken, wantData: marchallList(t, student)},
		{name: "role (unknown)", path: path("", "", nil, "lol"), token: adminToken, wantData: empty},
		{name: "role=student", path: path("", "", nil, user.RoleStudent), token: adminToken, wantData: marchallList(t, student, naughty)},
		{name: "role=admin,institute", path: path("", "", nil, user.RoleAdmin, user.RoleInstitute), token: adminToken, wantData: marchallList(t, admin, inst)},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		// ordering
		{
			name: "order by -created_at", path: path("", "-created_at", nil), token: adminToken,
			wantData: marchallList(t, naughty, student, teacher, inst, admin),
		},
		{
			name: "filtering & ordering", path: path("", "-name", bPtr(true), user.RoleStudent, user.RoleTeacher), token: adminToken,
			wantData: marchallList(t, teacher, student),
		},
	})
}

func Test_userApi_me(t *testing.T) {
	resetDB()
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", user.RoleStudent, true)

	runHTTPTests(t, []httpTest{
		{name: "me", path: "/api/users/me", token: getToken(t, student), wantData: marchallObj(t, student)},
		{
			name: "profile missing", path: "/api/users/me", token: getToken(t, user.User{ID: "user_ghost", Role: user.RoleStudent}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{name: "roles", path: "/api/users/roles", token: getToken(t, student), wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_detail(t *testing.T) {
	resetDB()
	ctx := context.Background()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.in", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", user.RoleStudent, true)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, []httpTest{
		{name: "self", path: "/api/users/" + student.ID, token: studentToken, wantData: marchallObj(t, student)},
		{name: "others are forbidden", path: "/api/users/" + teacher.ID, token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "admin", path: "/api/users/" + teacher.ID, token: adminToken, wantData: marchallObj(t, teacher)},
		{
			name: "not found", path: "/api/users/user_unknown", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "students cannot change their role", method: http.MethodPut, path: "/api/users/" + student.ID, token: studentToken,
			body: []byte(`{"role":"admin"}`), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "students cannot reactivate themselves", method: http.MethodPut, path: "/api/users/" + student.ID, token: studentToken,
			body: []byte(`{"is_active":true}`), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "username taken", method: http.MethodPut, path: "/api/users/" + student.ID, token: studentToken,
			body: []byte(`{"username":"teacher"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"a user with this username already exists"}`),
		},
		{
			name: "invalid role", method: http.MethodPut, path: "/api/users/" + teacher.ID, token: adminToken,
			body: []byte(`{"role":"lol"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"role":"invalid role"}`),
		},
		{
			name: "no self delete", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "admin only delete", method: http.MethodDelete, path: "/api/users/" + student.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
	})

	t.Run("self update", func(t *testing.T) {
		rec := do(http.MethodPut, "/api/users/"+student.ID, studentToken, []byte(`{"name":"  Hero Kumar  "}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, "Hero Kumar", usr.Name)
		assert.Equal(t, student.Username, usr.Username)
		assert.Equal(t, student.Email, usr.Email)
		assert.Equal(t, user.RoleStudent, usr.Role)
	})

	t.Run("admin promotes and deactivates", func(t *testing.T) {
		rec := do(http.MethodPut, "/api/users/"+teacher.ID, adminToken, []byte(`{"role":"institute","is_active":false}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		usr, err := usrRepo.GetUser(ctx, user.GetFilter{ID: teacher.ID})
		require.NoError(t, err)
		assert.Equal(t, user.RoleInstitute, usr.Role)
		assert.False(t, usr.Active())
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := do(http.MethodDelete, "/api/users/"+student.ID, adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := usrRepo.GetUser(ctx, user.GetFilter{ID: student.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_userApi_create(t *testing.T) {
	resetDB()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.in", user.RoleTeacher, true)

	runHTTPTests(t, []httpTest{
		{
			name: "admin only", method: http.MethodPost, path: "/api/users", token: getToken(t, teacher),
			body:     []byte(`{"name":"New","email":"new@test.in","role":"student"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "username or email required", method: http.MethodPost, path: "/api/users", token: getToken(t, admin),
			body:     []byte(`{"name":"New","role":"student"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"one of username or email is required","email":"one of username or email is required"}`),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/api/users", token: getToken(t, admin),
			body:     []byte(`{"name":"New","email":"TEACHER@test.in","role":"student"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"a user with this email already exists"}`),
		},
	})

	rec := do(http.MethodPost, "/api/users", getToken(t, admin), []byte(`{"name":"New Student","email":"new@test.in","role":"student"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var usr user.User
	unmarshal(t, rec, &usr)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "new@test.in", usr.Email)
	assert.True(t, usr.Active())
}

func Test_userApi_destroyMultiple(t *testing.T) {
	resetDB()
	ctx := context.Background()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", user.RoleAdmin, true)
	s1 := testutil.CreateUser(t, usrRepo, "S1", "s1", "s1@test.in", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, usrRepo, "S2", "s2", "s2@test.in", user.RoleStudent, true)
	adminToken := getToken(t, admin)

	rec := do(http.MethodDelete, "/api/users?id="+s1.ID+"&id="+admin.ID, adminToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(http.MethodDelete, "/api/users?id="+s1.ID+"&id="+s2.ID, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	users, err := usrRepo.QueryUsers(ctx, &user.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []user.User{admin}, users)
}
