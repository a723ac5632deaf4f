package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

// Entities are stored denormalized: containers hold ordered child-id slices and
// children never point back at their parents, so every resolved view is a
// strictly parent-to-child tree.

type Course struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Code             string    `json:"code"`
	Session          string    `json:"session"`
	Creator          string    `json:"creator"` // User id, must be an instructor
	Pages            []string  `json:"pages"`
	Students         []string  `json:"students"` // Enrolment ids
	Forum            string    `json:"forum"`
	WorkloadOverview string    `json:"workload_overview"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// Enrolment links a student to a course and carries their per-course kudos total.
type Enrolment struct {
	ID          string    `json:"id"`
	Student     string    `json:"student"`
	Course      string    `json:"course"`
	KudosEarned int       `json:"kudos_earned"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type Page struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Sections  []string `json:"sections"`
	Resources []string `json:"resources"` // attached directly to the page
}

type Section struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Resources []string `json:"resources"`
}

type Resource struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StoredFile  string `json:"stored_file,omitempty"` // FileStore ref
}

type Forum struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Posts       []string `json:"posts"` // set semantics, append-only order
}

type Post struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Question  string   `json:"question"`
	Image     string   `json:"image,omitempty"` // FileStore ref
	Poster    string   `json:"poster"`          // User id
	Responses []string `json:"responses"`
}

type Response struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
	Poster     string `json:"poster"` // User id
	TimePosted int64  `json:"time_posted"`
}

type WorkloadOverview struct {
	ID    string   `json:"id"`
	Weeks []string `json:"weeks"`
}

type Week struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tasks       []string `json:"tasks"`
}

// TaskRefKind tags the optional target of a Task.
type TaskRefKind string

const (
	TaskRefNone        TaskRefKind = ""
	TaskRefQuiz        TaskRefKind = "quiz"
	TaskRefAssignment  TaskRefKind = "assignment"
	TaskRefOnlineClass TaskRefKind = "online_class"
)

// TaskRef is the tagged union over a Task's optional target. At most one
// variant is ever populated; this is enforced when the task is written.
type TaskRef struct {
	Kind TaskRefKind `json:"kind,omitempty"`
	ID   string      `json:"id,omitempty"`
}

func (r TaskRef) IsZero() bool { return r.Kind == TaskRefNone && r.ID == "" }

func (r TaskRef) Validate() error {
	switch r.Kind {
	case TaskRefNone:
		if r.ID != "" {
			return core.NewValidationError(errors.New("task reference id set without a kind"))
		}
	case TaskRefQuiz, TaskRefAssignment, TaskRefOnlineClass:
		if r.ID == "" {
			return core.NewValidationError(errors.New("task reference kind set without an id"))
		}
	default:
		return core.NewValidationError(errors.Errorf("unknown task reference kind %q", r.Kind))
	}
	return nil
}

type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Ref         TaskRef `json:"ref,omitempty"`
}

// Summary stubs for the entities a Task may point at. Their full lifecycles
// live outside this core; the resolver only needs these projections.

type Quiz struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Open     time.Time `json:"open"`
	Close    time.Time `json:"close"`
	MaxMarks int       `json:"max_marks"`
}

type Assignment struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
	MaxMarks int       `json:"max_marks"`
}

type OnlineClass struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	LinkURL   string    `json:"link_url"`
	Running   bool      `json:"running"`
}

// Input payloads

type NewCourse struct {
	Title   string `json:"title" validate:"required"`
	Code    string `json:"code" validate:"required,alphanum_"`
	Session string `json:"session" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Session = core.CleanString(nc.Session)
	return core.Validate.Struct(nc)
}

type NewPage struct {
	Title string `json:"title" validate:"required"`
}

func (np *NewPage) Validate() error {
	np.Title = core.CleanString(np.Title)
	return core.Validate.Struct(np)
}

type NewSection struct {
	Title string `json:"title" validate:"required"`
}

func (ns *NewSection) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

type NewResource struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StoredFile  string `json:"stored_file"`
	// SectionID targets a section of the page; empty attaches to the page itself.
	// A resource belongs to exactly one container.
	SectionID string `json:"section_id"`
}

func (nr *NewResource) Validate() error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	return core.Validate.Struct(nr)
}

type NewPost struct {
	Title    string `json:"title" validate:"required"`
	Question string `json:"question" validate:"required"`
	Image    string `json:"image"`
}

func (np *NewPost) Validate() error {
	np.Title = core.CleanString(np.Title)
	np.Question = core.CleanString(np.Question)
	return core.Validate.Struct(np)
}

type NewResponse struct {
	Text string `json:"text" validate:"required"`
}

func (nr *NewResponse) Validate() error {
	nr.Text = core.CleanString(nr.Text)
	return core.Validate.Struct(nr)
}

type NewWeek struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nw *NewWeek) Validate() error {
	nw.Title = core.CleanString(nw.Title)
	nw.Description = core.CleanString(nw.Description)
	return core.Validate.Struct(nw)
}

// NewTask mirrors the write shape clients send: three optional references that
// collapse into a single TaskRef. More than one populated reference is invalid.
type NewTask struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Quiz        string `json:"quiz"`
	Assignment  string `json:"assignment"`
	OnlineClass string `json:"online_class"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if err := core.Validate.Struct(nt); err != nil {
		return err
	}

	var set int
	for _, id := range []string{nt.Quiz, nt.Assignment, nt.OnlineClass} {
		if id != "" {
			set++
		}
	}
	if set > 1 {
		return core.NewValidationError(
			errors.New("a task may reference at most one of quiz, assignment or online class"))
	}
	return nil
}

type NewQuiz struct {
	Title    string    `json:"title" validate:"required"`
	Open     time.Time `json:"open" validate:"required"`
	Close    time.Time `json:"close" validate:"required,gtfield=Open"`
	MaxMarks int       `json:"max_marks" validate:"gte=0"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	return core.Validate.Struct(nq)
}

type NewAssignment struct {
	Title    string    `json:"title" validate:"required"`
	Deadline time.Time `json:"deadline" validate:"required"`
	MaxMarks int       `json:"max_marks" validate:"gte=0"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	return core.Validate.Struct(na)
}

type NewOnlineClass struct {
	Title     string    `json:"title" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	LinkURL   string    `json:"link_url" validate:"required,url"`
}

func (no *NewOnlineClass) Validate() error {
	no.Title = core.CleanString(no.Title)
	no.LinkURL = core.CleanString(no.LinkURL)
	return core.Validate.Struct(no)
}

// Ref returns the tagged reference the validated payload collapses to.
func (nt NewTask) Ref() TaskRef {
	switch {
	case nt.Quiz != "":
		return TaskRef{Kind: TaskRefQuiz, ID: nt.Quiz}
	case nt.Assignment != "":
		return TaskRef{Kind: TaskRefAssignment, ID: nt.Assignment}
	case nt.OnlineClass != "":
		return TaskRef{Kind: TaskRefOnlineClass, ID: nt.OnlineClass}
	}
	return TaskRef{}
}
