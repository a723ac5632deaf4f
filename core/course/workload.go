package course

import (
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

// AddWeek appends a week to the course's workload overview.
func (svc *Service) AddWeek(actorID, courseID string, nw NewWeek) (Week, error) {
	if err := nw.Validate(); err != nil {
		return Week{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Week{}, err
	}

	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Week{}, err
	}
	return svc.repo.CreateWeek(crs.WorkloadOverview, Week{Title: nw.Title, Description: nw.Description})
}

// AddTask appends a task to a week. The payload's optional references collapse
// into a single tagged reference; the target must exist at write time.
func (svc *Service) AddTask(actorID, courseID, weekID string, nt NewTask) (Task, error) {
	if err := nt.Validate(); err != nil {
		return Task{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Task{}, err
	}
	if err := svc.weekInCourse(courseID, weekID); err != nil {
		return Task{}, err
	}

	ref := nt.Ref()
	if err := svc.checkTaskRef(ref); err != nil {
		return Task{}, err
	}
	return svc.repo.CreateTask(weekID, Task{Title: nt.Title, Description: nt.Description, Ref: ref})
}

// CompleteTask checks off a workload task for the acting student's enrolment,
// once, and credits the kudos activity matching the task's target.
func (svc *Service) CompleteTask(actorID, courseID, taskID string) error {
	enr, err := svc.repo.GetEnrolment(actorID, courseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewForbiddenError(core.ReasonNotEnrolled)
		}
		return err
	}

	tsk, err := svc.repo.GetTaskByID(taskID)
	if err != nil {
		return err
	}
	if err = svc.taskInCourse(courseID, taskID); err != nil {
		return err
	}

	if err = svc.repo.MarkTaskComplete(enr.ID, taskID); err != nil {
		return err
	}

	var activity string
	switch tsk.Ref.Kind {
	case TaskRefQuiz:
		activity = core.ActivityQuizCompletion
	case TaskRefAssignment:
		activity = core.ActivityAssignmentSubmission
	case TaskRefOnlineClass:
		activity = core.ActivityAttendance
	default:
		activity = core.ActivityTaskCompletion
	}
	return svc.ledger.Credit(enr.ID, activity)
}

// AddQuiz, AddAssignment and AddOnlineClass create the entities a task may
// point at. Their full lifecycles (questions, submissions, marking) live in
// other systems; here they exist so tasks have something to reference.

func (svc *Service) AddQuiz(actorID, courseID string, nq NewQuiz) (Quiz, error) {
	if err := nq.Validate(); err != nil {
		return Quiz{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Quiz{}, err
	}
	return svc.repo.CreateQuiz(Quiz{Title: nq.Title, Open: nq.Open, Close: nq.Close, MaxMarks: nq.MaxMarks})
}

func (svc *Service) AddAssignment(actorID, courseID string, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(Assignment{Title: na.Title, Deadline: na.Deadline, MaxMarks: na.MaxMarks})
}

func (svc *Service) AddOnlineClass(actorID, courseID string, no NewOnlineClass) (OnlineClass, error) {
	if err := no.Validate(); err != nil {
		return OnlineClass{}, err
	}
	if err := svc.authorizeManage(courseID, actorID); err != nil {
		return OnlineClass{}, err
	}
	return svc.repo.CreateOnlineClass(OnlineClass{Title: no.Title, StartTime: no.StartTime, LinkURL: no.LinkURL})
}

func (svc *Service) checkTaskRef(ref TaskRef) error {
	var err error
	switch ref.Kind {
	case TaskRefNone:
		return nil
	case TaskRefQuiz:
		_, err = svc.repo.GetQuizByID(ref.ID)
	case TaskRefAssignment:
		_, err = svc.repo.GetAssignmentByID(ref.ID)
	case TaskRefOnlineClass:
		_, err = svc.repo.GetOnlineClassByID(ref.ID)
	}
	return errors.WithMessage(err, "resolving task reference")
}

func (svc *Service) weekInCourse(courseID, weekID string) error {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	wlo, err := svc.repo.GetWorkloadByID(crs.WorkloadOverview)
	if err != nil {
		return err
	}
	if !contains(wlo.Weeks, weekID) {
		return errors.WithMessage(core.ErrNotFound, "week not found in course workload")
	}
	return nil
}

func (svc *Service) taskInCourse(courseID, taskID string) error {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	wlo, err := svc.repo.GetWorkloadByID(crs.WorkloadOverview)
	if err != nil {
		return err
	}
	for _, weekID := range wlo.Weeks {
		wk, err := svc.repo.GetWeekByID(weekID)
		if err != nil {
			continue // dangling week; membership is checked against the rest
		}
		if contains(wk.Tasks, taskID) {
			return nil
		}
	}
	return errors.WithMessage(core.ErrNotFound, "task not found in course workload")
}
