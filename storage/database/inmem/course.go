package inmemdb

import (
	"sort"

	"github.com/Kuroson/cs3900-project-sub002/core/course"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func cloneCourse(crs *course.Course) course.Course {
	cp := *crs
	cp.Pages = cloneIDs(crs.Pages)
	cp.Students = cloneIDs(crs.Students)
	return cp
}

func (r *courseRepository) CreateCourse(crs course.Course, frm course.Forum, wlo course.WorkloadOverview) (course.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	frm.ID = newID()
	frm.Posts = []string{}
	wlo.ID = newID()
	wlo.Weeks = []string{}

	crs.ID = newID()
	crs.Forum = frm.ID
	crs.WorkloadOverview = wlo.ID
	crs.Pages = []string{}
	crs.Students = []string{}

	r.db.forums[frm.ID] = &frm
	r.db.workloads[wlo.ID] = &wlo
	r.db.courses[crs.ID] = &crs
	return cloneCourse(&crs), nil
}

func (r *courseRepository) GetCourseByID(id string) (course.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if crs, ok := r.db.courses[id]; ok {
		return cloneCourse(crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (r *courseRepository) QueryAllCourses() ([]course.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]course.Course, 0, len(r.db.courses))
	for _, crs := range r.db.courses {
		all = append(all, cloneCourse(crs))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].Code < all[j].Code
	})
	return all, nil
}

func (r *courseRepository) CreateEnrolment(enr course.Enrolment) (course.Enrolment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	crs, ok := r.db.courses[enr.Course]
	if !ok {
		return course.Enrolment{}, course.ErrNotFound
	}
	key := enrolKey{student: enr.Student, course: enr.Course}
	if _, exists := r.db.enrolKeys[key]; exists {
		return course.Enrolment{}, course.ErrAlreadyEnrolled
	}

	enr.ID = newID()
	r.db.enrolments[enr.ID] = &enr
	r.db.enrolKeys[key] = enr.ID
	r.db.courseEnrols[enr.Course] = append(r.db.courseEnrols[enr.Course], enr.ID)
	crs.Students = appendUnique(crs.Students, enr.ID)
	return enr, nil
}

func (r *courseRepository) GetEnrolmentByID(id string) (course.Enrolment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if enr, ok := r.db.enrolments[id]; ok {
		return *enr, nil
	}
	return course.Enrolment{}, notFound("enrolment")
}

func (r *courseRepository) GetEnrolment(studentID, courseID string) (course.Enrolment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if id, ok := r.db.enrolKeys[enrolKey{student: studentID, course: courseID}]; ok {
		return *r.db.enrolments[id], nil
	}
	return course.Enrolment{}, notFound("enrolment")
}

func (r *courseRepository) QueryCourseEnrolments(courseID string) ([]course.Enrolment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.courses[courseID]; !ok {
		return nil, course.ErrNotFound
	}
	ids := r.db.courseEnrols[courseID]
	all := make([]course.Enrolment, 0, len(ids))
	for _, id := range ids {
		all = append(all, *r.db.enrolments[id])
	}
	return all, nil
}

// content pages

func (r *courseRepository) GetPageByID(id string) (course.Page, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if pg, ok := r.db.pages[id]; ok {
		cp := *pg
		cp.Sections = cloneIDs(pg.Sections)
		cp.Resources = cloneIDs(pg.Resources)
		return cp, nil
	}
	return course.Page{}, notFound("page")
}

func (r *courseRepository) GetSectionByID(id string) (course.Section, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if sec, ok := r.db.sections[id]; ok {
		cp := *sec
		cp.Resources = cloneIDs(sec.Resources)
		return cp, nil
	}
	return course.Section{}, notFound("section")
}

func (r *courseRepository) GetResourceByID(id string) (course.Resource, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if res, ok := r.db.resources[id]; ok {
		return *res, nil
	}
	return course.Resource{}, notFound("resource")
}

func (r *courseRepository) CreatePage(courseID string, pg course.Page) (course.Page, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	crs, ok := r.db.courses[courseID]
	if !ok {
		return course.Page{}, course.ErrNotFound
	}

	pg.ID = newID()
	pg.Sections = []string{}
	pg.Resources = []string{}
	r.db.pages[pg.ID] = &pg
	crs.Pages = appendUnique(crs.Pages, pg.ID)
	return pg, nil
}

func (r *courseRepository) CreateSection(pageID string, sec course.Section) (course.Section, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	pg, ok := r.db.pages[pageID]
	if !ok {
		return course.Section{}, notFound("page")
	}

	sec.ID = newID()
	sec.Resources = []string{}
	r.db.sections[sec.ID] = &sec
	pg.Sections = appendUnique(pg.Sections, sec.ID)
	return sec, nil
}

func (r *courseRepository) CreatePageResource(pageID string, res course.Resource) (course.Resource, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	pg, ok := r.db.pages[pageID]
	if !ok {
		return course.Resource{}, notFound("page")
	}

	res.ID = newID()
	r.db.resources[res.ID] = &res
	pg.Resources = appendUnique(pg.Resources, res.ID)
	return res, nil
}

func (r *courseRepository) CreateSectionResource(sectionID string, res course.Resource) (course.Resource, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	sec, ok := r.db.sections[sectionID]
	if !ok {
		return course.Resource{}, notFound("section")
	}

	res.ID = newID()
	r.db.resources[res.ID] = &res
	sec.Resources = appendUnique(sec.Resources, res.ID)
	return res, nil
}

// forum

func (r *courseRepository) GetForumByID(id string) (course.Forum, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if frm, ok := r.db.forums[id]; ok {
		cp := *frm
		cp.Posts = cloneIDs(frm.Posts)
		return cp, nil
	}
	return course.Forum{}, notFound("forum")
}

func (r *courseRepository) GetPostByID(id string) (course.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if pst, ok := r.db.posts[id]; ok {
		cp := *pst
		cp.Responses = cloneIDs(pst.Responses)
		return cp, nil
	}
	return course.Post{}, notFound("post")
}

func (r *courseRepository) GetResponseByID(id string) (course.Response, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if rsp, ok := r.db.responses[id]; ok {
		return *rsp, nil
	}
	return course.Response{}, notFound("response")
}

func (r *courseRepository) CreatePost(forumID string, pst course.Post) (course.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	frm, ok := r.db.forums[forumID]
	if !ok {
		return course.Post{}, notFound("forum")
	}

	pst.ID = newID()
	pst.Responses = []string{}
	r.db.posts[pst.ID] = &pst
	frm.Posts = appendUnique(frm.Posts, pst.ID)
	return pst, nil
}

func (r *courseRepository) AddPostToForum(forumID, postID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	frm, ok := r.db.forums[forumID]
	if !ok {
		return notFound("forum")
	}
	if _, ok = r.db.posts[postID]; !ok {
		return notFound("post")
	}
	frm.Posts = appendUnique(frm.Posts, postID)
	return nil
}

func (r *courseRepository) CreateResponse(postID string, rsp course.Response) (course.Response, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	pst, ok := r.db.posts[postID]
	if !ok {
		return course.Response{}, notFound("post")
	}

	rsp.ID = newID()
	r.db.responses[rsp.ID] = &rsp
	pst.Responses = appendUnique(pst.Responses, rsp.ID)
	return rsp, nil
}

func (r *courseRepository) UpdateResponse(rsp course.Response) (course.Response, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.responses[rsp.ID]; !ok {
		return course.Response{}, notFound("response")
	}
	r.db.responses[rsp.ID] = &rsp
	return rsp, nil
}

// workload

func (r *courseRepository) GetWorkloadByID(id string) (course.WorkloadOverview, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if wlo, ok := r.db.workloads[id]; ok {
		cp := *wlo
		cp.Weeks = cloneIDs(wlo.Weeks)
		return cp, nil
	}
	return course.WorkloadOverview{}, notFound("workload overview")
}

func (r *courseRepository) GetWeekByID(id string) (course.Week, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if wk, ok := r.db.weeks[id]; ok {
		cp := *wk
		cp.Tasks = cloneIDs(wk.Tasks)
		return cp, nil
	}
	return course.Week{}, notFound("week")
}

func (r *courseRepository) GetTaskByID(id string) (course.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if tsk, ok := r.db.tasks[id]; ok {
		return *tsk, nil
	}
	return course.Task{}, notFound("task")
}

func (r *courseRepository) CreateWeek(workloadID string, wk course.Week) (course.Week, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	wlo, ok := r.db.workloads[workloadID]
	if !ok {
		return course.Week{}, notFound("workload overview")
	}

	wk.ID = newID()
	wk.Tasks = []string{}
	r.db.weeks[wk.ID] = &wk
	wlo.Weeks = appendUnique(wlo.Weeks, wk.ID)
	return wk, nil
}

func (r *courseRepository) CreateTask(weekID string, tsk course.Task) (course.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	wk, ok := r.db.weeks[weekID]
	if !ok {
		return course.Task{}, notFound("week")
	}

	tsk.ID = newID()
	r.db.tasks[tsk.ID] = &tsk
	wk.Tasks = appendUnique(wk.Tasks, tsk.ID)
	return tsk, nil
}

func (r *courseRepository) MarkTaskComplete(enrolmentID, taskID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.enrolments[enrolmentID]; !ok {
		return notFound("enrolment")
	}
	if _, ok := r.db.tasks[taskID]; !ok {
		return notFound("task")
	}

	done, ok := r.db.completions[enrolmentID]
	if !ok {
		done = make(map[string]bool)
		r.db.completions[enrolmentID] = done
	}
	if done[taskID] {
		return course.ErrTaskCompleted
	}
	done[taskID] = true
	return nil
}

// task targets

func (r *courseRepository) GetQuizByID(id string) (course.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if qz, ok := r.db.quizzes[id]; ok {
		return *qz, nil
	}
	return course.Quiz{}, notFound("quiz")
}

func (r *courseRepository) GetAssignmentByID(id string) (course.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if asg, ok := r.db.assignments[id]; ok {
		return *asg, nil
	}
	return course.Assignment{}, notFound("assignment")
}

func (r *courseRepository) GetOnlineClassByID(id string) (course.OnlineClass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if ocl, ok := r.db.onlineClasses[id]; ok {
		return *ocl, nil
	}
	return course.OnlineClass{}, notFound("online class")
}

func (r *courseRepository) CreateQuiz(qz course.Quiz) (course.Quiz, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	qz.ID = newID()
	r.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (r *courseRepository) CreateAssignment(asg course.Assignment) (course.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	asg.ID = newID()
	r.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (r *courseRepository) CreateOnlineClass(ocl course.OnlineClass) (course.OnlineClass, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ocl.ID = newID()
	r.db.onlineClasses[ocl.ID] = &ocl
	return ocl, nil
}
