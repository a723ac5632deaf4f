package inmemdb

import (
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

type kudosRepository struct {
	db *DB
}

func NewKudosRepository(db *DB) kudos.Repository {
	return &kudosRepository{db: db}
}

func (r *kudosRepository) CreditKudos(enrolmentID string, amount int) error {
	if amount <= 0 {
		return errors.WithMessage(core.ErrInvalid, "credit amount must be positive")
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	enr, ok := r.db.enrolments[enrolmentID]
	if !ok {
		return notFound("enrolment")
	}
	usr, ok := r.db.users[enr.Student]
	if !ok {
		return notFound("user")
	}

	// both counters move under the one lock, never one without the other
	enr.KudosEarned += amount
	usr.Kudos += amount
	return nil
}

func (r *kudosRepository) AdjustKudos(enrolmentID string, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	enr, ok := r.db.enrolments[enrolmentID]
	if !ok {
		return notFound("enrolment")
	}
	usr, ok := r.db.users[enr.Student]
	if !ok {
		return notFound("user")
	}
	if enr.KudosEarned+delta < 0 || usr.Kudos+delta < 0 {
		return errors.WithMessage(core.ErrConflict, "adjustment would drive a kudos balance negative")
	}

	enr.KudosEarned += delta
	usr.Kudos += delta
	return nil
}

func (r *kudosRepository) PurchaseAvatar(userID, avatarKey string, cost int) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	usr, ok := r.db.users[userID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Avatar == avatarKey {
		return user.User{}, kudos.ErrAlreadyOwned
	}
	if usr.Kudos < cost {
		return user.User{}, kudos.ErrInsufficientKudos
	}

	usr.Kudos -= cost
	usr.Avatar = avatarKey
	return *usr, nil
}

func (r *kudosRepository) QueryLeaderboard(courseID string) ([]kudos.Entry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.courses[courseID]; !ok {
		return nil, course.ErrNotFound
	}

	ids := r.db.courseEnrols[courseID]
	entries := make([]kudos.Entry, 0, len(ids))
	for _, id := range ids {
		enr := r.db.enrolments[id]
		entry := kudos.Entry{
			EnrolmentID: enr.ID,
			StudentID:   enr.Student,
			KudosEarned: enr.KudosEarned,
		}
		if usr, ok := r.db.users[enr.Student]; ok {
			entry.Name = usr.Name
			entry.Avatar = usr.Avatar
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
