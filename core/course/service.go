package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

var (
	ErrNotFound        = errors.WithMessage(core.ErrNotFound, "course not found")
	ErrAlreadyEnrolled = errors.WithMessage(core.ErrConflict, "student already enrolled in this course")
	ErrTaskCompleted   = errors.WithMessage(core.ErrConflict, "task already completed")
)

type (
	// Repository is the entity store seam. Methods that persist a child and
	// register it on a parent do both in one committed unit, persisting the
	// child first so a concurrent reader never sees a dangling reference;
	// parent collections have set semantics (duplicate adds are no-ops).
	Repository interface {
		// CreateCourse provisions the course together with its forum and
		// workload overview atomically; they are never created standalone.
		CreateCourse(crs Course, frm Forum, wlo WorkloadOverview) (Course, error)
		GetCourseByID(id string) (Course, error)
		QueryAllCourses() ([]Course, error)

		// CreateEnrolment enforces (student, course) uniqueness and appends
		// the enrolment to the course's students in insertion order.
		CreateEnrolment(enr Enrolment) (Enrolment, error)
		GetEnrolmentByID(id string) (Enrolment, error)
		GetEnrolment(studentID, courseID string) (Enrolment, error)
		QueryCourseEnrolments(courseID string) ([]Enrolment, error)

		GetPageByID(id string) (Page, error)
		GetSectionByID(id string) (Section, error)
		GetResourceByID(id string) (Resource, error)
		CreatePage(courseID string, pg Page) (Page, error)
		CreateSection(pageID string, sec Section) (Section, error)
		CreatePageResource(pageID string, res Resource) (Resource, error)
		CreateSectionResource(sectionID string, res Resource) (Resource, error)

		GetForumByID(id string) (Forum, error)
		GetPostByID(id string) (Post, error)
		GetResponseByID(id string) (Response, error)
		CreatePost(forumID string, pst Post) (Post, error)
		// AddPostToForum registers an existing post on a forum; adding the
		// same post id twice leaves exactly one occurrence.
		AddPostToForum(forumID, postID string) error
		CreateResponse(postID string, rsp Response) (Response, error)
		UpdateResponse(rsp Response) (Response, error)

		GetWorkloadByID(id string) (WorkloadOverview, error)
		GetWeekByID(id string) (Week, error)
		GetTaskByID(id string) (Task, error)
		CreateWeek(workloadID string, wk Week) (Week, error)
		CreateTask(weekID string, tsk Task) (Task, error)
		// MarkTaskComplete records a completion once per (enrolment, task);
		// a repeat returns ErrTaskCompleted.
		MarkTaskComplete(enrolmentID, taskID string) error

		GetQuizByID(id string) (Quiz, error)
		GetAssignmentByID(id string) (Assignment, error)
		GetOnlineClassByID(id string) (OnlineClass, error)
		CreateQuiz(qz Quiz) (Quiz, error)
		CreateAssignment(asg Assignment) (Assignment, error)
		CreateOnlineClass(ocl OnlineClass) (OnlineClass, error)
	}

	Service struct {
		repo   Repository
		users  user.Repository
		guard  *Guard
		ledger *kudos.Ledger
		log    core.Logger
	}
)

func NewService(repo Repository, users user.Repository, ledger *kudos.Ledger, log core.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		guard:  NewGuard(repo, users),
		ledger: ledger,
		log:    log,
	}
}

// Guard exposes the service's access guard for transports that need to run
// checks without performing a mutation.
func (svc *Service) Guard() *Guard { return svc.guard }

// Create provisions a new course with its forum and workload overview in one
// committed unit. The creator must be an instructor.
func (svc *Service) Create(actorID string, nc NewCourse) (Course, error) {
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}

	actor, err := svc.users.GetUserByID(actorID)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding creating user")
	}
	if !actor.IsInstructor() {
		return Course{}, core.NewForbiddenError(core.ReasonNotInstructor)
	}

	now := time.Now().UTC()
	crs := Course{
		Title:     nc.Title,
		Code:      nc.Code,
		Session:   nc.Session,
		Creator:   actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	frm := Forum{Title: nc.Title, Description: "Discussion forum for " + nc.Code}
	return svc.repo.CreateCourse(crs, frm, WorkloadOverview{})
}

func (svc *Service) Get(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) QueryAll() ([]Course, error) {
	return svc.repo.QueryAllCourses()
}

// Enrol creates the unique (student, course) join record that gates forum and
// workload visibility for non-instructors.
func (svc *Service) Enrol(courseID, studentID string) (Enrolment, error) {
	if _, err := svc.repo.GetCourseByID(courseID); err != nil {
		return Enrolment{}, err
	}
	student, err := svc.users.GetUserByID(studentID)
	if err != nil {
		return Enrolment{}, errors.Wrap(err, "finding student")
	}
	if student.IsInstructor() {
		return Enrolment{}, core.NewValidationError(errors.New("instructors access courses without enrolment"))
	}

	return svc.repo.CreateEnrolment(Enrolment{
		Student:   studentID,
		Course:    courseID,
		CreatedAt: time.Now().UTC(),
	})
}

// AddPage appends a new content page to the course.
func (svc *Service) AddPage(actorID, courseID string, np NewPage) (Page, error) {
	if err := np.Validate(); err != nil {
		return Page{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Page{}, err
	}
	return svc.repo.CreatePage(courseID, Page{Title: np.Title})
}

// AddSection appends a new section to a page of the course.
func (svc *Service) AddSection(actorID, courseID, pageID string, ns NewSection) (Section, error) {
	if err := ns.Validate(); err != nil {
		return Section{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Section{}, err
	}
	if err := svc.pageInCourse(courseID, pageID); err != nil {
		return Section{}, err
	}
	return svc.repo.CreateSection(pageID, Section{Title: ns.Title})
}

// AddResource attaches an uploaded resource to exactly one container: a
// section of the page when SectionID is set, the page itself otherwise.
func (svc *Service) AddResource(actorID, courseID, pageID string, nr NewResource) (Resource, error) {
	if err := nr.Validate(); err != nil {
		return Resource{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Resource{}, err
	}
	if err := svc.pageInCourse(courseID, pageID); err != nil {
		return Resource{}, err
	}

	res := Resource{Title: nr.Title, Description: nr.Description, StoredFile: nr.StoredFile}
	if nr.SectionID == "" {
		return svc.repo.CreatePageResource(pageID, res)
	}

	pg, err := svc.repo.GetPageByID(pageID)
	if err != nil {
		return Resource{}, err
	}
	if !contains(pg.Sections, nr.SectionID) {
		return Resource{}, errors.WithMessage(core.ErrNotFound, "section not found on page")
	}
	return svc.repo.CreateSectionResource(nr.SectionID, res)
}

func (svc *Service) authorizeManage(courseID, actorID string) error {
	d, err := svc.guard.CanManage(courseID, actorID)
	if err != nil {
		return err
	}
	return d.Err()
}

func (svc *Service) pageInCourse(courseID, pageID string) error {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if !contains(crs.Pages, pageID) {
		return errors.WithMessage(core.ErrNotFound, "page not found in course")
	}
	return nil
}

// creditActivity awards kudos for a qualifying mutation. Instructors hold no
// enrolment and earn nothing. The mutation has already committed by the time
// this runs, so a ledger failure is logged rather than surfaced.
func (svc *Service) creditActivity(userID, courseID, activity string) {
	enr, err := svc.repo.GetEnrolment(userID, courseID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			svc.log.Error("finding enrolment for kudos credit", err)
		}
		return
	}
	if err := svc.ledger.Credit(enr.ID, activity); err != nil {
		svc.log.Error("crediting kudos", err, map[string]interface{}{
			"enrolment": enr.ID, "activity": activity,
		})
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
