package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists if another user holds the username or email.
		CheckUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		// Sync creates or refreshes a user pushed by the identity provider.
		// created is true when the user did not exist yet.
		Sync(ctx context.Context, nu NewUser) (usr User, created bool, err error)
		GetByID(ctx context.Context, id string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		// ListStaff returns all active admin, institute and teacher users except excludeID.
		ListStaff(ctx context.Context, excludeID string) ([]User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclUsers); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(nu.Name, "name"),
		vala.StringNotEmpty(nu.Role, "role"),
	).Check(); err != nil {
		return User{}, core.NewArgumentError(err)
	}

	now := time.Now().UTC()
	usr := User{
		ID:        nu.ID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		ImageURL:  nu.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *service) Sync(ctx context.Context, nu NewUser) (User, bool, error) {
	nu.Clean()
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(nu.ID, "id"),
	).Check(); err != nil {
		return User{}, false, core.NewArgumentError(err)
	}
	if !IsValidRole(nu.Role) {
		nu.Role = RoleStudent
	}
	if nu.Name == "" {
		nu.Name = firstNonEmpty(nu.Username, nu.Email, "User")
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: nu.ID})
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, false, errors.Wrap(err, "finding user by ID")
		}
		if usr, err = svc.Create(ctx, nu); err != nil {
			return User{}, false, err
		}
		svc.sendWelcomeMail(usr)
		return usr, true, nil
	}

	usr.Name = nu.Name
	usr.Username = nu.Username
	usr.Email = nu.Email
	usr.Role = nu.Role
	usr.ImageURL = nu.ImageURL
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, false, errors.Wrap(err, "updating user")
	}
	return usr, false, nil
}

func (svc *service) sendWelcomeMail(usr User) {
	if usr.Email == "" || svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to PadhaiDunia",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	ordering = core.CleanOrdering(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) ListStaff(ctx context.Context, excludeID string) ([]User, error) {
	active := true
	filter := &QueryFilter{Roles: StaffRoles, IsActive: &active}
	if excludeID != "" {
		filter.ExcludeIDs = []string{excludeID}
	}
	staff, err := svc.repo.QueryUsers(ctx, filter, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	return staff, nil
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	usr.ImageURL = uu.ImageURL
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.IsActive != nil {
		usr.SetActive(*uu.IsActive)
	}
	usr.UpdatedAt = time.Now().UTC()

	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := svc.repo.DeleteUsersByID(ctx, ids); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
