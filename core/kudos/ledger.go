package kudos

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

var (
	ErrUnknownAvatar     = errors.WithMessage(core.ErrNotFound, "avatar not in catalog")
	ErrAlreadyOwned      = errors.WithMessage(core.ErrConflict, "avatar already owned")
	ErrInsufficientKudos = errors.WithMessage(core.ErrConflict, "insufficient kudos")
)

// Entry is one leaderboard row: an enrolment joined with its student's profile.
type Entry struct {
	Rank        int    `json:"rank"`
	EnrolmentID string `json:"enrolment_id"`
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	KudosEarned int    `json:"kudos_earned"`
}

type (
	Repository interface {
		// CreditKudos adds amount to both the enrolment's per-course total and
		// its student's global balance in one committed unit; a reader never
		// observes one counter updated without the other.
		CreditKudos(enrolmentID string, amount int) error
		// AdjustKudos applies a signed correction to both counters. It fails
		// without touching state if either balance would go negative.
		AdjustKudos(enrolmentID string, delta int) error
		// PurchaseAvatar checks ownership and balance, debits cost and assigns
		// the avatar as one serialized unit, so two concurrent purchases can
		// never overdraw the user. On failure state is left unchanged.
		PurchaseAvatar(userID, avatarKey string, cost int) (user.User, error)
		// QueryLeaderboard returns one unranked entry per enrolment of the
		// course, in enrolment insertion order.
		QueryLeaderboard(courseID string) ([]Entry, error)
	}

	Ledger struct {
		repo    Repository
		users   user.Repository
		catalog *core.Catalog
		log     core.Logger
	}
)

func NewLedger(repo Repository, users user.Repository, catalog *core.Catalog, log core.Logger) *Ledger {
	return &Ledger{repo: repo, users: users, catalog: catalog, log: log}
}

// Credit awards the configured point value for a kudos-earning activity to an
// enrolment. Activities configured to zero are a no-op.
func (l *Ledger) Credit(enrolmentID, activity string) error {
	amount := l.catalog.Value(activity)
	if amount <= 0 {
		l.log.Debug("activity has no kudos value, skipping credit", activity)
		return nil
	}
	if err := l.repo.CreditKudos(enrolmentID, amount); err != nil {
		return errors.Wrapf(err, "crediting %d kudos for %s", amount, activity)
	}
	return nil
}

// Adjust is the admin correction path, the only way kudosEarned may decrease.
// Only instructors may apply it.
func (l *Ledger) Adjust(actorID, enrolmentID string, delta int) error {
	actor, err := l.users.GetUserByID(actorID)
	if err != nil {
		return errors.Wrap(err, "finding acting user")
	}
	if !actor.IsInstructor() {
		return core.NewForbiddenError(core.ReasonNotInstructor)
	}
	if delta == 0 {
		return core.NewValidationError(errors.New("adjustment delta must be non-zero"))
	}
	if err := l.repo.AdjustKudos(enrolmentID, delta); err != nil {
		return err
	}
	l.log.Info("kudos adjusted", map[string]interface{}{
		"actor": actorID, "enrolment": enrolmentID, "delta": delta,
	})
	return nil
}

// PurchaseAvatar spends kudos on a catalog avatar. Failure modes
// (ErrUnknownAvatar, ErrAlreadyOwned, ErrInsufficientKudos) leave the user's
// balance and avatar unchanged.
func (l *Ledger) PurchaseAvatar(userID, avatarKey string) (user.User, error) {
	item, ok := l.catalog.Avatar(avatarKey)
	if !ok {
		return user.User{}, ErrUnknownAvatar
	}
	return l.repo.PurchaseAvatar(userID, avatarKey, item.Cost)
}

// Leaderboard ranks a course's enrolments by kudos earned, descending. The
// sort is stable over enrolment insertion order, so repeated calls on
// unchanged data yield the identical ordering.
func (l *Ledger) Leaderboard(courseID string) ([]Entry, error) {
	entries, err := l.repo.QueryLeaderboard(courseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].KudosEarned > entries[j].KudosEarned
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
