package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
)

type courseApi struct {
	opts *Options
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{opts: opts}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/enrol", api.enrol)
	dg.GET("/leaderboard", api.leaderboard)
	dg.PUT("/enrolments/:enrolmentID/kudos", api.adjustKudos)

	dg.POST("/pages", api.createPage)
	dg.GET("/pages/:pageID", api.retrievePage)
	dg.POST("/pages/:pageID/sections", api.createSection)
	dg.POST("/pages/:pageID/resources", api.createResource)

	dg.GET("/forum", api.retrieveForum)
	dg.POST("/forum/posts", api.createPost)
	dg.POST("/forum/posts/:postID/responses", api.createResponse)
	dg.PUT("/forum/posts/:postID/responses/:responseID/correct", api.markCorrect)

	dg.GET("/workload", api.retrieveWorkload)
	dg.POST("/workload/weeks", api.createWeek)
	dg.POST("/workload/weeks/:weekID/tasks", api.createTask)
	dg.PUT("/workload/tasks/:taskID/complete", api.completeTask)

	dg.POST("/quizzes", api.createQuiz)
	dg.POST("/assignments", api.createAssignment)
	dg.POST("/online-classes", api.createOnlineClass)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	crs, err := api.opts.CourseSvc.Create(actorID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.opts.CourseSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	view, err := api.opts.Resolver.Course(actorID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

// enrol enrols the authenticated student in the course.
func (api *courseApi) enrol(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	enr, err := api.opts.CourseSvc.Enrol(ctx.Param("id"), actorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) leaderboard(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	d, err := api.opts.CourseSvc.Guard().CanRead(ctx.Param("id"), actorID)
	if err != nil {
		return err
	}
	if err = d.Err(); err != nil {
		return err
	}

	entries, err := api.opts.Ledger.Leaderboard(ctx.Param("id"))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []kudos.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *courseApi) adjustKudos(ctx echo.Context) error {
	var data KudosAdjustRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KudosAdjustRequest")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.opts.Ledger.Adjust(actorID, ctx.Param("enrolmentID"), data.Delta); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createPage(ctx echo.Context) error {
	var data course.NewPage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPage")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	pg, err := api.opts.CourseSvc.AddPage(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pg)
}

func (api *courseApi) retrievePage(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	view, err := api.opts.Resolver.Page(actorID, ctx.Param("id"), ctx.Param("pageID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *courseApi) createSection(ctx echo.Context) error {
	var data course.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	sec, err := api.opts.CourseSvc.AddSection(actorID, ctx.Param("id"), ctx.Param("pageID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sec)
}

// createResource accepts a multipart form: title, description, section_id and
// an optional file part. The blob lands in the file store, the resource record
// carries its ref.
func (api *courseApi) createResource(ctx echo.Context) error {
	data := course.NewResource{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		SectionID:   ctx.FormValue("section_id"),
	}

	ref, err := api.storeFormFile(ctx, "file")
	if err != nil {
		return err
	}
	data.StoredFile = ref

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	res, err := api.opts.CourseSvc.AddResource(actorID, ctx.Param("id"), ctx.Param("pageID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *courseApi) retrieveForum(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	view, err := api.opts.Resolver.Forum(actorID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

// createPost accepts a multipart form: title, question and an optional image
// file part.
func (api *courseApi) createPost(ctx echo.Context) error {
	data := course.NewPost{
		Title:    ctx.FormValue("title"),
		Question: ctx.FormValue("question"),
	}

	ref, err := api.storeFormFile(ctx, "image")
	if err != nil {
		return err
	}
	data.Image = ref

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	pst, err := api.opts.CourseSvc.CreatePost(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pst)
}

func (api *courseApi) createResponse(ctx echo.Context) error {
	var data course.NewResponse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResponse")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	rsp, err := api.opts.CourseSvc.CreateResponse(actorID, ctx.Param("id"), ctx.Param("postID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rsp)
}

func (api *courseApi) markCorrect(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	rsp, err := api.opts.CourseSvc.MarkCorrect(actorID, ctx.Param("id"), ctx.Param("postID"), ctx.Param("responseID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rsp)
}

func (api *courseApi) retrieveWorkload(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	view, err := api.opts.Resolver.Workload(actorID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *courseApi) createWeek(ctx echo.Context) error {
	var data course.NewWeek
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeek")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	wk, err := api.opts.CourseSvc.AddWeek(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, wk)
}

func (api *courseApi) createTask(ctx echo.Context) error {
	var data course.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	tsk, err := api.opts.CourseSvc.AddTask(actorID, ctx.Param("id"), ctx.Param("weekID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *courseApi) completeTask(ctx echo.Context) error {
	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	if err := api.opts.CourseSvc.CompleteTask(actorID, ctx.Param("id"), ctx.Param("taskID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createQuiz(ctx echo.Context) error {
	var data course.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	qz, err := api.opts.CourseSvc.AddQuiz(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *courseApi) createAssignment(ctx echo.Context) error {
	var data course.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	asg, err := api.opts.CourseSvc.AddAssignment(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *courseApi) createOnlineClass(ctx echo.Context) error {
	var data course.NewOnlineClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOnlineClass")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	ocl, err := api.opts.CourseSvc.AddOnlineClass(actorID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ocl)
}

type KudosAdjustRequest struct {
	Delta int `json:"delta"`
}

// storeFormFile reads an optional multipart file part into the file store and
// returns its ref; an absent part returns an empty ref.
func (api *courseApi) storeFormFile(ctx echo.Context, field string) (string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil // no file part
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrapf(err, "opening uploaded %s", field)
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return "", errors.Wrapf(err, "reading uploaded %s", field)
	}
	return api.opts.Files.Store(data, core.FileMeta{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	})
}
