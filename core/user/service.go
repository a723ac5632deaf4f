package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

var (
	ErrNotFound    = errors.WithMessage(core.ErrNotFound, "user not found")
	ErrEmailExists = errors.WithMessage(core.ErrConflict, "a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// UpdateUser persists profile fields (name, role, updatedAt) only;
		// kudos and avatar belong to the kudos ledger.
		UpdateUser(usr User) (User, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (svc *Service) checkEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

// SetInstructor promotes or demotes the target user. Any instructor may do this
// for any user; the grant is deliberately not scoped to a course, so every call
// is logged for audit.
func (svc *Service) SetInstructor(actorID, targetID string, grant bool) (User, error) {
	actor, err := svc.repo.GetUserByID(actorID)
	if err != nil {
		return User{}, errors.Wrap(err, "finding acting user")
	}
	if !actor.IsInstructor() {
		return User{}, core.NewForbiddenError(core.ReasonNotInstructor)
	}

	target, err := svc.repo.GetUserByID(targetID)
	if err != nil {
		return User{}, errors.Wrap(err, "finding target user")
	}
	if grant {
		target.Role = RoleInstructor
	} else {
		target.Role = RoleStudent
	}
	target.UpdatedAt = time.Now().UTC()

	target, err = svc.repo.UpdateUser(target)
	if err != nil {
		return User{}, err
	}
	svc.log.Info("instructor grant", map[string]interface{}{
		"actor": actor.ID, "target": target.ID, "granted": grant,
	})
	return target, nil
}
