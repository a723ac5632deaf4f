package course

import (
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

// Decision is the outcome of an access check. Denials carry a stable reason
// code for transports to map onto their own error shape.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision            { return Decision{Allowed: true} }
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Err returns nil for an allowed decision, a ForbiddenError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return core.NewForbiddenError(d.Reason)
}

// Guard decides course-scoped eligibility from role and enrolment. All checks
// are synchronous reads with no side effects; a non-nil error means the store
// failed, not that access was denied.
type Guard struct {
	repo  Repository
	users user.Repository
}

func NewGuard(repo Repository, users user.Repository) *Guard {
	return &Guard{repo: repo, users: users}
}

// CanRead allows instructors, and anyone holding an enrolment in the course.
func (g *Guard) CanRead(courseID, userID string) (Decision, error) {
	usr, err := g.users.GetUserByID(userID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "finding user")
	}
	if usr.IsInstructor() {
		return Allow(), nil
	}

	if _, err = g.repo.GetEnrolment(userID, courseID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Deny(core.ReasonNotEnrolled), nil
		}
		return Decision{}, errors.Wrap(err, "finding enrolment")
	}
	return Allow(), nil
}

// CanWriteForum gates posting and responding; same predicate as CanRead.
func (g *Guard) CanWriteForum(courseID, userID string) (Decision, error) {
	return g.CanRead(courseID, userID)
}

// CanMarkCorrect allows only the instructor who created the course.
func (g *Guard) CanMarkCorrect(courseID, userID string) (Decision, error) {
	return g.ownsCourse(courseID, userID)
}

// CanManage gates structural writes (pages, weeks, tasks) to the course owner.
func (g *Guard) CanManage(courseID, userID string) (Decision, error) {
	return g.ownsCourse(courseID, userID)
}

func (g *Guard) ownsCourse(courseID, userID string) (Decision, error) {
	usr, err := g.users.GetUserByID(userID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "finding user")
	}
	if !usr.IsInstructor() {
		return Deny(core.ReasonNotCourseOwner), nil
	}

	crs, err := g.repo.GetCourseByID(courseID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "finding course")
	}
	if crs.Creator != userID {
		return Deny(core.ReasonNotCourseOwner), nil
	}
	return Allow(), nil
}
