package user

import (
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-lms/core"
)

// Account types
const (
	TypeStudent = "student"
	TypeTeacher = "teacher"
	TypeAdmin   = "admin"
)

var AllTypes = []string{TypeStudent, TypeTeacher, TypeAdmin}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Type         string    `json:"type"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Type == TypeAdmin }
func (u User) IsTeacher() bool { return u.Type == TypeTeacher }
func (u User) IsStudent() bool { return u.Type == TypeStudent }

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Type: u.Type, Email: u.Email}
}

// Identity is what a client sends in the `x-user` header: a JSON-serialized {id, type, email}.
// It is not signed; the backend only trusts it when configured to.
type Identity struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Email string `json:"email"`
}

func (id Identity) Header() (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ParseIdentity(header string) (Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(header), &id); err != nil {
		return Identity{}, err
	}
	id.Email = core.CleanString(id.Email, true /* lower */)
	return id, nil
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Type            string `json:"type" validate:"required,usertype"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Type            string `json:"type" validate:"omitempty,usertype"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Types    []string `query:"type"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Types == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// OrderingFields are the fields users can be ordered by.
var OrderingFields = []string{"name", "email", "type", "is_active", "created_at", "last_login"}
