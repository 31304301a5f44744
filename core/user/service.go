package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-lms/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if a user other than `excludedIDs` uses `email`.
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Validate(ctx context.Context, nu *NewUser) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Type = core.CleanString(nu.Type, true /* lower */)

	if err := svc.validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Email)
}

// Create creates any kind of User; it is meant for admins.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.Validate(ctx, &nu); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Type:      nu.Type,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Signup creates a student or teacher account and welcomes them by email.
func (svc *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	if core.CleanString(nu.Type, true) == TypeAdmin {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "type", Error: "invalid account type"})
	}
	usr, err := svc.Create(ctx, nu)
	if err != nil {
		return User{}, err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: usr,
	})
	return usr, nil
}

// Authenticate checks the credentials of an active User and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

// Resolve finds the User an `x-user` Identity claims to be.
// The Identity is only accepted if its email and type match the stored User.
func (svc *Service) Resolve(ctx context.Context, id Identity) (User, error) {
	usr, err := svc.GetByID(ctx, id.ID)
	if err != nil {
		return User{}, err
	}
	if usr.Email != id.Email || usr.Type != id.Type {
		return User{}, ErrNotFound
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return usr, nil
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if name := core.CleanString(uu.Name); name != "" {
		usr.Name = name
	}
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Type = core.CleanString(uu.Type, true /* lower */)
	if err = svc.validate.Struct(uu); err != nil {
		return User{}, err
	}
	if uu.Email != "" && uu.Email != usr.Email {
		if err = svc.checkUniqueness(ctx, uu.Email, usr.ID); err != nil {
			return User{}, err
		}
		usr.Email = uu.Email
	}
	if uu.Type != "" {
		usr.Type = uu.Type
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return err
}
