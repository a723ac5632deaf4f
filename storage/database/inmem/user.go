package inmemdb

import (
	"sort"

	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.checkEmailUniqueness(email, excludedUsers...)
}

// checkEmailUniqueness expects the caller to hold the lock.
func (r *userRepository) checkEmailUniqueness(email string, excludedUsers ...user.User) error {
	id, ok := r.db.userEmails[email]
	if !ok {
		return nil
	}
	for _, excl := range excludedUsers {
		if excl.ID == id {
			return nil
		}
	}
	return user.ErrEmailExists
}

func (r *userRepository) CreateUser(usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkEmailUniqueness(usr.Email); err != nil {
		return user.User{}, err
	}

	usr.ID = newID()
	r.db.users[usr.ID] = &usr
	r.db.userEmails[usr.Email] = usr.ID
	return usr, nil
}

func (r *userRepository) QueryAllUsers() ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]user.User, 0, len(r.db.users))
	for _, usr := range r.db.users {
		all = append(all, *usr)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].Email < all[j].Email
	})
	return all, nil
}

func (r *userRepository) GetUserByID(id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if usr, ok := r.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByEmail(email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if id, ok := r.db.userEmails[email]; ok {
		return *r.db.users[id], nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) UpdateUser(usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// profile fields only; kudos and avatar belong to the ledger
	stored.Name = usr.Name
	stored.Role = usr.Role
	stored.UpdatedAt = usr.UpdatedAt
	return *stored, nil
}
