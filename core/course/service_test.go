package course_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
	"github.com/Kuroson/cs3900-project-sub002/storage/database/inmem"
)

type fixture struct {
	usrRepo user.Repository
	crsRepo course.Repository
	ledger  *kudos.Ledger
	svc     *course.Service
}

func setup(t *testing.T) *fixture {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	catalog := core.NewStaticCatalog(nil, map[string]int{
		core.ActivityQuizCompletion:  100,
		core.ActivityTaskCompletion:  50,
		core.ActivityPostCreation:    20,
		core.ActivityCorrectAnswer:   50,
		core.ActivityResponseCreation: 20,
	})
	ledger := kudos.NewLedger(inmemdb.NewKudosRepository(db), usrRepo, catalog, core.NopLogger())
	return &fixture{
		usrRepo: usrRepo,
		crsRepo: crsRepo,
		ledger:  ledger,
		svc:     course.NewService(crsRepo, usrRepo, ledger, core.NopLogger()),
	}
}

func (f *fixture) createUser(t *testing.T, name, email, role string) user.User {
	now := time.Now().UTC()
	usr, err := f.usrRepo.CreateUser(user.User{
		Name: name, Email: email, Role: role, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (f *fixture) createCourse(t *testing.T, creatorID string) course.Course {
	crs, err := f.svc.Create(creatorID, course.NewCourse{Title: "Programming", Code: "comp1511", Session: "21T3"})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func forbiddenReason(t *testing.T, err error) string {
	var forbidden *core.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("error = %v, want a forbidden denial", err)
	}
	return forbidden.Reason
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	instr := f.createUser(t, "Instructor", "instr@test.cd", user.RoleInstructor)
	student := f.createUser(t, "Student", "student@test.cd", user.RoleStudent)

	if _, err := f.svc.Create(student.ID, course.NewCourse{Title: "Nope", Code: "x1", Session: "21T3"}); err == nil {
		t.Error("Create() by student succeeded, want forbidden")
	} else if reason := forbiddenReason(t, err); reason != core.ReasonNotInstructor {
		t.Errorf("Create() denial reason = %q, want %q", reason, core.ReasonNotInstructor)
	}

	if _, err := f.svc.Create(instr.ID, course.NewCourse{Title: "Bad", Code: "bad code!", Session: "21T3"}); !errors.Is(err, core.ErrInvalid) {
		t.Errorf("Create() with bad code error = %v, want ErrInvalid", err)
	}

	crs := f.createCourse(t, instr.ID)
	if crs.Creator != instr.ID {
		t.Errorf("Creator = %s, want %s", crs.Creator, instr.ID)
	}

	// the forum and workload overview were provisioned with the course
	frm, err := f.crsRepo.GetForumByID(crs.Forum)
	if err != nil {
		t.Fatalf("GetForumByID() failed: %v", err)
	}
	if frm.Title != "Programming" || frm.Description != "Discussion forum for comp1511" {
		t.Errorf("forum = %+v, want title and description derived from the course", frm)
	}
	if _, err = f.crsRepo.GetWorkloadByID(crs.WorkloadOverview); err != nil {
		t.Fatalf("GetWorkloadByID() failed: %v", err)
	}
}

func TestService_Enrol(t *testing.T) {
	f := setup(t)
	instr := f.createUser(t, "Instructor", "instr@test.cd", user.RoleInstructor)
	student := f.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	crs := f.createCourse(t, instr.ID)

	enr, err := f.svc.Enrol(crs.ID, student.ID)
	if err != nil {
		t.Fatalf("Enrol() failed: %v", err)
	}
	if enr.Student != student.ID || enr.Course != crs.ID || enr.KudosEarned != 0 {
		t.Errorf("enrolment = %+v, want fresh join record", enr)
	}

	if _, err = f.svc.Enrol(crs.ID, student.ID); !errors.Is(err, course.ErrAlreadyEnrolled) {
		t.Errorf("Enrol() twice error = %v, want ErrAlreadyEnrolled", err)
	}
	if _, err = f.svc.Enrol(crs.ID, instr.ID); !errors.Is(err, core.ErrInvalid) {
		t.Errorf("Enrol() instructor error = %v, want ErrInvalid", err)
	}
	if _, err = f.svc.Enrol("nope", student.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Enrol() unknown course error = %v, want ErrNotFound", err)
	}
}

func TestService_contentPages(t *testing.T) {
	f := setup(t)
	owner := f.createUser(t, "Owner", "owner@test.cd", user.RoleInstructor)
	other := f.createUser(t, "Other", "other@test.cd", user.RoleInstructor)
	crs := f.createCourse(t, owner.ID)

	// only the owning instructor manages content
	if _, err := f.svc.AddPage(other.ID, crs.ID, course.NewPage{Title: "Week 1"}); err == nil {
		t.Error("AddPage() by non-owner succeeded, want forbidden")
	} else if reason := forbiddenReason(t, err); reason != core.ReasonNotCourseOwner {
		t.Errorf("AddPage() denial reason = %q, want %q", reason, core.ReasonNotCourseOwner)
	}

	pg, err := f.svc.AddPage(owner.ID, crs.ID, course.NewPage{Title: "Week 1"})
	if err != nil {
		t.Fatalf("AddPage() failed: %v", err)
	}
	sec, err := f.svc.AddSection(owner.ID, crs.ID, pg.ID, course.NewSection{Title: "Lectures"})
	if err != nil {
		t.Fatalf("AddSection() failed: %v", err)
	}

	// a resource attaches to the page or to one of its sections, never elsewhere
	pageRes, err := f.svc.AddResource(owner.ID, crs.ID, pg.ID, course.NewResource{Title: "Outline"})
	if err != nil {
		t.Fatalf("AddResource(page) failed: %v", err)
	}
	secRes, err := f.svc.AddResource(owner.ID, crs.ID, pg.ID, course.NewResource{Title: "Slides", SectionID: sec.ID})
	if err != nil {
		t.Fatalf("AddResource(section) failed: %v", err)
	}
	if _, err = f.svc.AddResource(owner.ID, crs.ID, pg.ID, course.NewResource{Title: "Lost", SectionID: "nope"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddResource(unknown section) error = %v, want ErrNotFound", err)
	}

	gotPg, _ := f.crsRepo.GetPageByID(pg.ID)
	if len(gotPg.Resources) != 1 || gotPg.Resources[0] != pageRes.ID {
		t.Errorf("page resources = %v, want [%s]", gotPg.Resources, pageRes.ID)
	}
	gotSec, _ := f.crsRepo.GetSectionByID(sec.ID)
	if len(gotSec.Resources) != 1 || gotSec.Resources[0] != secRes.ID {
		t.Errorf("section resources = %v, want [%s]", gotSec.Resources, secRes.ID)
	}

	// page membership is checked against the course
	other2 := f.createCourse(t, other.ID)
	if _, err = f.svc.AddSection(other.ID, other2.ID, pg.ID, course.NewSection{Title: "Hijack"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddSection(foreign page) error = %v, want ErrNotFound", err)
	}
}

func TestService_forum(t *testing.T) {
	f := setup(t)
	owner := f.createUser(t, "Owner", "owner@test.cd", user.RoleInstructor)
	other := f.createUser(t, "Other", "other@test.cd", user.RoleInstructor)
	poster := f.createUser(t, "Poster", "poster@test.cd", user.RoleStudent)
	outsider := f.createUser(t, "Outsider", "outsider@test.cd", user.RoleStudent)
	crs := f.createCourse(t, owner.ID)
	enr, err := f.svc.Enrol(crs.ID, poster.ID)
	if err != nil {
		t.Fatalf("Enrol() failed: %v", err)
	}

	// forum writes are enrolment gated
	if _, err := f.svc.CreatePost(outsider.ID, crs.ID, course.NewPost{Title: "Hi", Question: "Q?"}); err == nil {
		t.Error("CreatePost() by outsider succeeded, want forbidden")
	} else if reason := forbiddenReason(t, err); reason != core.ReasonNotEnrolled {
		t.Errorf("CreatePost() denial reason = %q, want %q", reason, core.ReasonNotEnrolled)
	}

	pst, err := f.svc.CreatePost(poster.ID, crs.ID, course.NewPost{Title: "Hi", Question: "What is a pointer?"})
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	rsp, err := f.svc.CreateResponse(poster.ID, crs.ID, pst.ID, course.NewResponse{Text: "An address."})
	if err != nil {
		t.Fatalf("CreateResponse() failed: %v", err)
	}

	// posting and responding earned kudos
	gotEnr, _ := f.crsRepo.GetEnrolmentByID(enr.ID)
	if gotEnr.KudosEarned != 40 {
		t.Errorf("KudosEarned = %d after post and response, want 40", gotEnr.KudosEarned)
	}

	// instructors post without an enrolment and earn nothing
	if _, err = f.svc.CreatePost(owner.ID, crs.ID, course.NewPost{Title: "Note", Question: "Read ch. 3"}); err != nil {
		t.Fatalf("CreatePost() by owner failed: %v", err)
	}

	// only the owning instructor accepts answers
	if _, err = f.svc.MarkCorrect(other.ID, crs.ID, pst.ID, rsp.ID); err == nil {
		t.Error("MarkCorrect() by non-owner succeeded, want forbidden")
	} else if reason := forbiddenReason(t, err); reason != core.ReasonNotCourseOwner {
		t.Errorf("MarkCorrect() denial reason = %q, want %q", reason, core.ReasonNotCourseOwner)
	}

	marked, err := f.svc.MarkCorrect(owner.ID, crs.ID, pst.ID, rsp.ID)
	if err != nil {
		t.Fatalf("MarkCorrect() failed: %v", err)
	}
	if !marked.Correct {
		t.Error("response not flagged correct")
	}
	gotEnr, _ = f.crsRepo.GetEnrolmentByID(enr.ID)
	if gotEnr.KudosEarned != 90 {
		t.Errorf("KudosEarned = %d after accepted answer, want 90", gotEnr.KudosEarned)
	}

	// idempotent: marking again neither fails nor double-credits
	if _, err = f.svc.MarkCorrect(owner.ID, crs.ID, pst.ID, rsp.ID); err != nil {
		t.Fatalf("MarkCorrect() repeat failed: %v", err)
	}
	gotEnr, _ = f.crsRepo.GetEnrolmentByID(enr.ID)
	if gotEnr.KudosEarned != 90 {
		t.Errorf("KudosEarned = %d after repeated accept, want 90", gotEnr.KudosEarned)
	}
}

func TestService_workload(t *testing.T) {
	f := setup(t)
	owner := f.createUser(t, "Owner", "owner@test.cd", user.RoleInstructor)
	student := f.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	outsider := f.createUser(t, "Outsider", "outsider@test.cd", user.RoleStudent)
	crs := f.createCourse(t, owner.ID)
	enr, err := f.svc.Enrol(crs.ID, student.ID)
	if err != nil {
		t.Fatalf("Enrol() failed: %v", err)
	}

	wk, err := f.svc.AddWeek(owner.ID, crs.ID, course.NewWeek{Title: "Week 1"})
	if err != nil {
		t.Fatalf("AddWeek() failed: %v", err)
	}

	// at most one target per task
	_, err = f.svc.AddTask(owner.ID, crs.ID, wk.ID, course.NewTask{Title: "Busy", Quiz: "q1", Assignment: "a1"})
	if !errors.Is(err, core.ErrInvalid) {
		t.Errorf("AddTask(two refs) error = %v, want ErrInvalid", err)
	}
	// the target must exist at write time
	_, err = f.svc.AddTask(owner.ID, crs.ID, wk.ID, course.NewTask{Title: "Dangling", Quiz: "nope"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddTask(dangling ref) error = %v, want ErrNotFound", err)
	}

	qz, err := f.svc.AddQuiz(owner.ID, crs.ID, course.NewQuiz{
		Title: "Pointers", Open: time.Now(), Close: time.Now().Add(time.Hour), MaxMarks: 10,
	})
	if err != nil {
		t.Fatalf("AddQuiz() failed: %v", err)
	}
	quizTask, err := f.svc.AddTask(owner.ID, crs.ID, wk.ID, course.NewTask{Title: "Do the quiz", Quiz: qz.ID})
	if err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}
	if quizTask.Ref.Kind != course.TaskRefQuiz || quizTask.Ref.ID != qz.ID {
		t.Errorf("task ref = %+v, want quiz %s", quizTask.Ref, qz.ID)
	}
	plainTask, err := f.svc.AddTask(owner.ID, crs.ID, wk.ID, course.NewTask{Title: "Read ch. 3"})
	if err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	// completion requires an enrolment
	if err = f.svc.CompleteTask(outsider.ID, crs.ID, quizTask.ID); err == nil {
		t.Error("CompleteTask() by outsider succeeded, want forbidden")
	} else if reason := forbiddenReason(t, err); reason != core.ReasonNotEnrolled {
		t.Errorf("CompleteTask() denial reason = %q, want %q", reason, core.ReasonNotEnrolled)
	}

	// a quiz task credits the quiz activity, a plain task the checklist one
	if err = f.svc.CompleteTask(student.ID, crs.ID, quizTask.ID); err != nil {
		t.Fatalf("CompleteTask() failed: %v", err)
	}
	if err = f.svc.CompleteTask(student.ID, crs.ID, plainTask.ID); err != nil {
		t.Fatalf("CompleteTask() failed: %v", err)
	}
	gotEnr, _ := f.crsRepo.GetEnrolmentByID(enr.ID)
	if gotEnr.KudosEarned != 150 {
		t.Errorf("KudosEarned = %d after completions, want 150", gotEnr.KudosEarned)
	}

	// once per (enrolment, task)
	if err = f.svc.CompleteTask(student.ID, crs.ID, quizTask.ID); !errors.Is(err, course.ErrTaskCompleted) {
		t.Errorf("CompleteTask() repeat error = %v, want ErrTaskCompleted", err)
	}
	gotEnr, _ = f.crsRepo.GetEnrolmentByID(enr.ID)
	if gotEnr.KudosEarned != 150 {
		t.Errorf("KudosEarned = %d after repeated completion, want 150", gotEnr.KudosEarned)
	}
}
