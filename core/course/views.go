package course

import (
	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

// Resolver assembles fully populated subtrees for the named views. Each view
// enumerates exactly which reference fields expand and to what depth; there is
// no generic recursive population. Resolution is a pure read: a child id that
// no longer resolves is logged and elided, never fatal.

type (
	CourseView struct {
		ID      string       `json:"id"`
		Title   string       `json:"title"`
		Code    string       `json:"code"`
		Session string       `json:"session"`
		Creator user.Summary `json:"creator"`
		Pages   []PageView   `json:"pages"`
	}

	PageView struct {
		ID        string         `json:"id"`
		Title     string         `json:"title"`
		Sections  []SectionView  `json:"sections"`
		Resources []ResourceView `json:"resources"`
	}

	SectionView struct {
		ID        string         `json:"id"`
		Title     string         `json:"title"`
		Resources []ResourceView `json:"resources"`
	}

	ResourceView struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		FileURL     string `json:"file_url,omitempty"`
	}

	ForumView struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		Posts       []PostView `json:"posts"`
	}

	PostView struct {
		ID        string         `json:"id"`
		Title     string         `json:"title"`
		Question  string         `json:"question"`
		ImageURL  string         `json:"image_url,omitempty"`
		Poster    user.Summary   `json:"poster"`
		Responses []ResponseView `json:"responses"`
	}

	ResponseView struct {
		ID         string       `json:"id"`
		Text       string       `json:"text"`
		Correct    bool         `json:"correct"`
		TimePosted int64        `json:"time_posted"`
		Poster     user.Summary `json:"poster"`
	}

	WorkloadView struct {
		ID    string     `json:"id"`
		Weeks []WeekView `json:"weeks"`
	}

	WeekView struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		Tasks       []TaskView `json:"tasks"`
	}

	// TaskView carries at most one resolved target; all nil is a plain
	// checklist item.
	TaskView struct {
		ID          string       `json:"id"`
		Title       string       `json:"title"`
		Description string       `json:"description,omitempty"`
		Quiz        *Quiz        `json:"quiz,omitempty"`
		Assignment  *Assignment  `json:"assignment,omitempty"`
		OnlineClass *OnlineClass `json:"online_class,omitempty"`
	}
)

type Resolver struct {
	repo  Repository
	users user.Repository
	guard *Guard
	files core.FileStore
	log   core.Logger
}

func NewResolver(repo Repository, users user.Repository, files core.FileStore, log core.Logger) *Resolver {
	return &Resolver{
		repo:  repo,
		users: users,
		guard: NewGuard(repo, users),
		files: files,
		log:   log,
	}
}

// Course resolves the content-page subtree of a course.
func (r *Resolver) Course(actorID, courseID string) (CourseView, error) {
	crs, err := r.authorizedCourse(actorID, courseID)
	if err != nil {
		return CourseView{}, err
	}

	view := CourseView{
		ID:      crs.ID,
		Title:   crs.Title,
		Code:    crs.Code,
		Session: crs.Session,
		Creator: r.userSummary(crs.Creator),
		Pages:   make([]PageView, 0, len(crs.Pages)),
	}
	for _, pageID := range crs.Pages {
		pg, err := r.repo.GetPageByID(pageID)
		if err != nil {
			r.elide("page", pageID, crs.ID, err)
			continue
		}
		view.Pages = append(view.Pages, r.pageView(pg))
	}
	return view, nil
}

// Page resolves a single content page of a course.
func (r *Resolver) Page(actorID, courseID, pageID string) (PageView, error) {
	crs, err := r.authorizedCourse(actorID, courseID)
	if err != nil {
		return PageView{}, err
	}
	if !contains(crs.Pages, pageID) {
		return PageView{}, ErrNotFound
	}
	pg, err := r.repo.GetPageByID(pageID)
	if err != nil {
		return PageView{}, err
	}
	return r.pageView(pg), nil
}

// Forum resolves the full forum of a course: posts, their posters and responses.
func (r *Resolver) Forum(actorID, courseID string) (ForumView, error) {
	crs, err := r.authorizedCourse(actorID, courseID)
	if err != nil {
		return ForumView{}, err
	}
	frm, err := r.repo.GetForumByID(crs.Forum)
	if err != nil {
		return ForumView{}, err
	}

	view := ForumView{
		ID:          frm.ID,
		Title:       frm.Title,
		Description: frm.Description,
		Posts:       make([]PostView, 0, len(frm.Posts)),
	}
	for _, postID := range frm.Posts {
		pst, err := r.repo.GetPostByID(postID)
		if err != nil {
			r.elide("post", postID, frm.ID, err)
			continue
		}
		view.Posts = append(view.Posts, r.postView(pst))
	}
	return view, nil
}

// Workload resolves the full workload tracker of a course: weeks, tasks and
// the target each task points at.
func (r *Resolver) Workload(actorID, courseID string) (WorkloadView, error) {
	crs, err := r.authorizedCourse(actorID, courseID)
	if err != nil {
		return WorkloadView{}, err
	}
	wlo, err := r.repo.GetWorkloadByID(crs.WorkloadOverview)
	if err != nil {
		return WorkloadView{}, err
	}

	view := WorkloadView{ID: wlo.ID, Weeks: make([]WeekView, 0, len(wlo.Weeks))}
	for _, weekID := range wlo.Weeks {
		wk, err := r.repo.GetWeekByID(weekID)
		if err != nil {
			r.elide("week", weekID, wlo.ID, err)
			continue
		}

		wkView := WeekView{
			ID:          wk.ID,
			Title:       wk.Title,
			Description: wk.Description,
			Tasks:       make([]TaskView, 0, len(wk.Tasks)),
		}
		for _, taskID := range wk.Tasks {
			tsk, err := r.repo.GetTaskByID(taskID)
			if err != nil {
				r.elide("task", taskID, wk.ID, err)
				continue
			}
			wkView.Tasks = append(wkView.Tasks, r.taskView(tsk))
		}
		view.Weeks = append(view.Weeks, wkView)
	}
	return view, nil
}

func (r *Resolver) authorizedCourse(actorID, courseID string) (Course, error) {
	crs, err := r.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	d, err := r.guard.CanRead(courseID, actorID)
	if err != nil {
		return Course{}, err
	}
	if err = d.Err(); err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (r *Resolver) pageView(pg Page) PageView {
	view := PageView{
		ID:        pg.ID,
		Title:     pg.Title,
		Sections:  make([]SectionView, 0, len(pg.Sections)),
		Resources: r.resourceViews(pg.ID, pg.Resources),
	}
	for _, sectionID := range pg.Sections {
		sec, err := r.repo.GetSectionByID(sectionID)
		if err != nil {
			r.elide("section", sectionID, pg.ID, err)
			continue
		}
		view.Sections = append(view.Sections, SectionView{
			ID:        sec.ID,
			Title:     sec.Title,
			Resources: r.resourceViews(sec.ID, sec.Resources),
		})
	}
	return view
}

func (r *Resolver) resourceViews(parentID string, ids []string) []ResourceView {
	views := make([]ResourceView, 0, len(ids))
	for _, id := range ids {
		res, err := r.repo.GetResourceByID(id)
		if err != nil {
			r.elide("resource", id, parentID, err)
			continue
		}
		views = append(views, ResourceView{
			ID:          res.ID,
			Title:       res.Title,
			Description: res.Description,
			FileURL:     r.fileURL(res.StoredFile),
		})
	}
	return views
}

func (r *Resolver) postView(pst Post) PostView {
	view := PostView{
		ID:        pst.ID,
		Title:     pst.Title,
		Question:  pst.Question,
		ImageURL:  r.fileURL(pst.Image),
		Poster:    r.userSummary(pst.Poster),
		Responses: make([]ResponseView, 0, len(pst.Responses)),
	}
	for _, responseID := range pst.Responses {
		rsp, err := r.repo.GetResponseByID(responseID)
		if err != nil {
			r.elide("response", responseID, pst.ID, err)
			continue
		}
		view.Responses = append(view.Responses, ResponseView{
			ID:         rsp.ID,
			Text:       rsp.Text,
			Correct:    rsp.Correct,
			TimePosted: rsp.TimePosted,
			Poster:     r.userSummary(rsp.Poster),
		})
	}
	return view
}

// taskView resolves a task's target in fixed priority order: quiz, then
// assignment, then online class. Write-time validation keeps at most one
// variant populated; the order here is the tie-break should a stored record
// ever carry more. A dangling target degrades to a plain item.
func (r *Resolver) taskView(tsk Task) TaskView {
	view := TaskView{ID: tsk.ID, Title: tsk.Title, Description: tsk.Description}
	switch tsk.Ref.Kind {
	case TaskRefQuiz:
		if qz, err := r.repo.GetQuizByID(tsk.Ref.ID); err != nil {
			r.elide("quiz", tsk.Ref.ID, tsk.ID, err)
		} else {
			view.Quiz = &qz
		}
	case TaskRefAssignment:
		if asg, err := r.repo.GetAssignmentByID(tsk.Ref.ID); err != nil {
			r.elide("assignment", tsk.Ref.ID, tsk.ID, err)
		} else {
			view.Assignment = &asg
		}
	case TaskRefOnlineClass:
		if ocl, err := r.repo.GetOnlineClassByID(tsk.Ref.ID); err != nil {
			r.elide("online class", tsk.Ref.ID, tsk.ID, err)
		} else {
			view.OnlineClass = &ocl
		}
	}
	return view
}

// fileURL exchanges a stored file reference for a signed download URL. An
// empty reference means no file; a signing failure degrades to no link.
func (r *Resolver) fileURL(ref string) string {
	if ref == "" {
		return ""
	}
	url, err := r.files.URLFor(ref)
	if err != nil {
		r.log.Error("signing file URL", err, map[string]interface{}{"ref": ref})
		return ""
	}
	return url
}

func (r *Resolver) userSummary(id string) user.Summary {
	usr, err := r.users.GetUserByID(id)
	if err != nil {
		r.elide("user", id, "", err)
		return user.Summary{ID: id}
	}
	return usr.Summary()
}

// elide records a dangling reference for offline repair. Container membership
// is eventually consistent with deletes, so this is expected, not fatal.
func (r *Resolver) elide(kind, id, parentID string, err error) {
	r.log.Warn("dangling "+kind+" reference elided", map[string]interface{}{
		"id": id, "parent": parentID, "err": err.Error(),
	})
}
