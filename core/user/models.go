package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/padhaidunia/padhaidunia/core"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleInstitute = "institute"
	RoleTeacher   = "teacher"
	RoleStudent   = "student"
)

var (
	AllRoles   = []string{RoleAdmin, RoleInstitute, RoleTeacher, RoleStudent}
	StaffRoles = []string{RoleAdmin, RoleInstitute, RoleTeacher}

	rolePriorities = map[string]int{
		RoleAdmin:     30,
		RoleInstitute: 20,
		RoleTeacher:   11,
		RoleStudent:   1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Institute", Value: RoleInstitute},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsValidRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

// IsStaffRole reports whether role is one of admin, institute or teacher.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleInstitute || role == RoleTeacher
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ImageURL  string    `json:"image_url"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

func (u User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u User) IsInstitute() bool { return u.Role == RoleInstitute }
func (u User) IsTeacher() bool   { return u.Role == RoleTeacher }
func (u User) IsStudent() bool   { return u.Role == RoleStudent }
func (u User) IsStaff() bool     { return IsStaffRole(u.Role) }

// Viewer returns the identity this user acts as.
func (u User) Viewer() Viewer {
	return Viewer{ID: u.ID, Role: u.Role}
}

// Viewer is the authenticated identity behind a request.
// Its Role comes from the verified session claims and drives every visibility decision.
type Viewer struct {
	ID   string
	Role string
}

func (v Viewer) IsAdmin() bool     { return v.Role == RoleAdmin }
func (v Viewer) IsInstitute() bool { return v.Role == RoleInstitute }
func (v Viewer) IsTeacher() bool   { return v.Role == RoleTeacher }
func (v Viewer) IsStudent() bool   { return v.Role == RoleStudent }
func (v Viewer) IsStaff() bool     { return IsStaffRole(v.Role) }

// NewUser contains information needed to create a new User.
// ID is optional: users synced from the identity provider keep its ID.
type NewUser struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,notblank"`
	Username string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"required,role"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

func (nu *NewUser) Clean() {
	nu.ID = core.CleanString(nu.ID)
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.ImageURL = core.CleanString(nu.ImageURL)
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string `json:"name"`
	Username string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	Role     string `json:"role" validate:"omitempty,role"`
	IsActive *bool  `json:"is_active"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if img := core.CleanString(uu.ImageURL); img != "" {
		uu.ImageURL = img
	} else {
		uu.ImageURL = origUsr.ImageURL
	}
	uu.Role = core.CleanString(uu.Role, true /* lower */)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

type GetFilter struct {
	ID       string
	Username string
	Email    string
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
	ExcludeIDs  []string  `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero() && qf.ExcludeIDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, role := range qf.Roles {
		qf.Roles[i] = core.CleanString(role, true /* lower */)
	}
}

// Orderable fields for QueryUsers
var OrderingFields = []string{"name", "username", "email", "role", "created_at", "updated_at"}
