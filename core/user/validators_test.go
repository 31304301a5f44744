package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-lms/core"
)

func TestNewUserValidation(t *testing.T) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)

	newUser := func(typ, pwd string) NewUser {
		return NewUser{Name: "Awe Test", Email: "awe@test.cd", Type: typ, Password: pwd, PasswordConfirm: pwd}
	}

	tests := []struct {
		name    string
		nu      NewUser
		wantTag string // first failing tag; empty when valid
		field   string
	}{
		{name: "valid", nu: newUser(TypeStudent, "Xk9#mQ2!vL")},
		{name: "unknown type", nu: newUser("principal", "Xk9#mQ2!vL"), wantTag: userTypeTag, field: "type"},
		{name: "too short", nu: newUser(TypeStudent, "Xk9#m"), wantTag: pwdMinLenTag, field: "password"},
		{name: "whitespace", nu: newUser(TypeStudent, "Xk9# mQ2!vL"), wantTag: pwdNoSpaceTag, field: "password"},
		{name: "all numeric", nu: newUser(TypeStudent, "1234567890"), wantTag: pwdNotAllNumTag, field: "password"},
		{name: "not complex", nu: newUser(TypeStudent, "abcdefghij"), wantTag: pwdComplexityTag, field: "password"},
		{name: "similar to email", nu: newUser(TypeStudent, "Awe@test.cd1"), wantTag: pwdAttrSimTag, field: "password"},
		{name: "too common", nu: newUser(TypeStudent, "Password1!"), wantTag: pwdNoCommonTag, field: "password"},
		{
			name:    "confirm mismatch",
			nu:      NewUser{Name: "Awe", Email: "awe@test.cd", Type: TypeTeacher, Password: "Xk9#mQ2!vL", PasswordConfirm: "lol"},
			wantTag: "eqfield", field: "password_confirm",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "want validator.ValidationErrors, got %v", err) {
				return
			}
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
			assert.Equal(t, tt.field, vErrs[0].Field())
			assert.NotEmpty(t, vErrs[0].Translate(translator))
		})
	}
}

func TestUpdateUserValidation(t *testing.T) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)

	assert.NoError(t, validate.Struct(UpdateUser{Name: "New Name"}), "password is optional")
	assert.Error(t, validate.Struct(UpdateUser{Password: "Xk9#mQ2!vL"}), "confirm is required with a password")
	assert.Error(t, validate.Struct(UpdateUser{Password: "short", PasswordConfirm: "short"}))
	assert.NoError(t, validate.Struct(UpdateUser{Password: "Xk9#mQ2!vL", PasswordConfirm: "Xk9#mQ2!vL"}))
	assert.Error(t, validate.Struct(UpdateUser{Type: "lol"}))
}

func TestIdentity(t *testing.T) {
	usr := User{ID: "42", Type: TypeTeacher, Email: "t@test.cd"}

	header, err := usr.Identity().Header()
	assert.NoError(t, err)

	id, err := ParseIdentity(header)
	assert.NoError(t, err)
	assert.Equal(t, usr.Identity(), id)

	id, err = ParseIdentity(`{"id":"1","type":"student","email":" S@Test.CD "}`)
	assert.NoError(t, err)
	assert.Equal(t, "s@test.cd", id.Email)

	_, err = ParseIdentity("lol")
	assert.Error(t, err)
}

func TestUser_password(t *testing.T) {
	var usr User
	assert.NoError(t, usr.SetPassword("Xk9#mQ2!vL"))
	assert.NoError(t, usr.CheckPassword("Xk9#mQ2!vL"))
	assert.Error(t, usr.CheckPassword("lol"))
}
