// Package inmemdb is the in-memory entity store: one arena of id-indexed
// tables guarded by a single lock, so every compound write the services need
// (course+forum+workload provisioning, child persist + parent append, dual
// kudos counters, avatar purchase) is a single critical section.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

type enrolKey struct {
	student string
	course  string
}

type DB struct {
	mu sync.RWMutex

	users      map[string]*user.User
	userEmails map[string]string // email -> user id

	courses      map[string]*course.Course
	enrolments   map[string]*course.Enrolment
	enrolKeys    map[enrolKey]string // (student, course) -> enrolment id
	courseEnrols map[string][]string // course id -> enrolment ids, insertion order

	forums    map[string]*course.Forum
	posts     map[string]*course.Post
	responses map[string]*course.Response

	pages     map[string]*course.Page
	sections  map[string]*course.Section
	resources map[string]*course.Resource

	workloads map[string]*course.WorkloadOverview
	weeks     map[string]*course.Week
	tasks     map[string]*course.Task

	quizzes       map[string]*course.Quiz
	assignments   map[string]*course.Assignment
	onlineClasses map[string]*course.OnlineClass

	completions map[string]map[string]bool // enrolment id -> completed task ids
}

func Open() (*DB, error) {
	return &DB{
		users:         make(map[string]*user.User),
		userEmails:    make(map[string]string),
		courses:       make(map[string]*course.Course),
		enrolments:    make(map[string]*course.Enrolment),
		enrolKeys:     make(map[enrolKey]string),
		courseEnrols:  make(map[string][]string),
		forums:        make(map[string]*course.Forum),
		posts:         make(map[string]*course.Post),
		responses:     make(map[string]*course.Response),
		pages:         make(map[string]*course.Page),
		sections:      make(map[string]*course.Section),
		resources:     make(map[string]*course.Resource),
		workloads:     make(map[string]*course.WorkloadOverview),
		weeks:         make(map[string]*course.Week),
		tasks:         make(map[string]*course.Task),
		quizzes:       make(map[string]*course.Quiz),
		assignments:   make(map[string]*course.Assignment),
		onlineClasses: make(map[string]*course.OnlineClass),
		completions:   make(map[string]map[string]bool),
	}, nil
}

func newID() string {
	return uuid.New().String()
}

func notFound(kind string) error {
	return errors.WithMessage(core.ErrNotFound, kind+" not found")
}

// appendUnique gives child collections their set semantics: adding an id that
// is already present is a no-op, order is append-only.
func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func cloneIDs(ids []string) []string {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return cp
}
