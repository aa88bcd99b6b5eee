package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/fpms/core"
)

// Roles
const (
	RoleFaculty   = "faculty"
	RoleHOD       = "hod"
	RoleCommittee = "committee"
	RoleAdmin     = "admin"
)

var (
	AllRoles = []string{RoleFaculty, RoleHOD, RoleCommittee, RoleAdmin}

	Roles = []Role{
		{Name: "Faculty", Value: RoleFaculty},
		{Name: "Head of Department", Value: RoleHOD},
		{Name: "Evaluation Committee", Value: RoleCommittee},
		{Name: "Admin", Value: RoleAdmin},
	}
)

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	Designation  string    `json:"designation,omitempty"`
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

func (u *User) IsFaculty() bool   { return u.Role == RoleFaculty }
func (u *User) IsHOD() bool       { return u.Role == RoleHOD }
func (u *User) IsCommittee() bool { return u.Role == RoleCommittee }
func (u *User) IsAdmin() bool     { return u.Role == RoleAdmin }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Department      string `json:"department" validate:"required_if=Role faculty,required_if=Role hod"`
	Designation     string `json:"designation"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

type QueryFilter struct {
	Search     string   `query:"search"`
	Roles      []string `query:"role"`
	Department string   `query:"department"`
	IsActive   *bool    `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}
