package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/kudos"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
	"github.com/Kuroson/cs3900-project-sub002/services/auth"
	"github.com/Kuroson/cs3900-project-sub002/services/filestore"
	"github.com/Kuroson/cs3900-project-sub002/storage/database/inmem"
)

type testApp struct {
	srv      Server
	usrRepo  user.Repository
	verifier *authsvc.Verifier
}

func setupServer(t *testing.T) *testApp {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	log := core.NopLogger()
	catalog := core.NewStaticCatalog(nil, nil)
	ledger := kudos.NewLedger(inmemdb.NewKudosRepository(db), usrRepo, catalog, log)
	files := filesvc.NewMemStore()
	verifier := authsvc.NewVerifier()

	srv := NewServer(&Options{
		Address:        ":0",
		DisableReqLogs: true,
		UserSvc:        user.NewService(usrRepo, log),
		CourseSvc:      course.NewService(crsRepo, usrRepo, ledger, log),
		Resolver:       course.NewResolver(crsRepo, usrRepo, files, log),
		Ledger:         ledger,
		Catalog:        catalog,
		Verifier:       verifier,
		Files:          files,
		Logger:         log,
	})
	return &testApp{srv: srv, usrRepo: usrRepo, verifier: verifier}
}

func (a *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) createInstructor(t *testing.T, email string) (user.User, string) {
	now := time.Now().UTC()
	usr := user.User{Name: "Instructor", Email: email, Role: user.RoleInstructor, CreatedAt: now, UpdatedAt: now}
	if err := usr.SetPassword("pwd"); err != nil {
		t.Fatalf("createInstructor() failed: %v", err)
	}
	usr, err := a.usrRepo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createInstructor() failed: %v", err)
	}
	token, err := a.verifier.Issue(usr)
	if err != nil {
		t.Fatalf("createInstructor() failed: %v", err)
	}
	return usr, token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
}

func TestAPI_registerAndLogin(t *testing.T) {
	app := setupServer(t)

	rec := app.request(t, http.MethodPost, "/v1/users/register", "", map[string]string{
		"name": "Awe", "email": "awe@test.cd", "password": "s3cr3t",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s, want 201", rec.Code, rec.Body.String())
	}
	var usr user.User
	decode(t, rec, &usr)
	if usr.Role != user.RoleStudent {
		t.Errorf("registered role = %q, want public registration to force %q", usr.Role, user.RoleStudent)
	}

	rec = app.request(t, http.MethodPost, "/v1/users/login", "", map[string]string{
		"email": "awe@test.cd", "password": "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("login with wrong password = %d, want 400", rec.Code)
	}

	rec = app.request(t, http.MethodPost, "/v1/users/login", "", map[string]string{
		"email": "awe@test.cd", "password": "s3cr3t",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s, want 200", rec.Code, rec.Body.String())
	}
	var login LoginResponse
	decode(t, rec, &login)
	if login.Token == "" {
		t.Fatal("login returned no token")
	}

	rec = app.request(t, http.MethodGet, "/v1/users/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d %s, want 200", rec.Code, rec.Body.String())
	}
	var me user.User
	decode(t, rec, &me)
	if me.ID != usr.ID {
		t.Errorf("me = %s, want %s", me.ID, usr.ID)
	}
}

func TestAPI_courseFlow(t *testing.T) {
	app := setupServer(t)
	_, instrToken := app.createInstructor(t, "instr@test.cd")

	// register and log in a student
	rec := app.request(t, http.MethodPost, "/v1/users/register", "", map[string]string{
		"name": "Awe", "email": "awe@test.cd", "password": "s3cr3t",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s, want 201", rec.Code, rec.Body.String())
	}
	rec = app.request(t, http.MethodPost, "/v1/users/login", "", map[string]string{
		"email": "awe@test.cd", "password": "s3cr3t",
	})
	var login LoginResponse
	decode(t, rec, &login)
	studentToken := login.Token

	// auth is required
	if rec = app.request(t, http.MethodGet, "/v1/courses", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated course list = %d, want 401", rec.Code)
	}

	// students cannot create courses
	newCourse := map[string]string{"title": "Programming", "code": "comp1511", "session": "21T3"}
	if rec = app.request(t, http.MethodPost, "/v1/courses", studentToken, newCourse); rec.Code != http.StatusForbidden {
		t.Errorf("course creation by student = %d, want 403", rec.Code)
	}

	rec = app.request(t, http.MethodPost, "/v1/courses", instrToken, newCourse)
	if rec.Code != http.StatusCreated {
		t.Fatalf("course creation = %d %s, want 201", rec.Code, rec.Body.String())
	}
	var crs course.Course
	decode(t, rec, &crs)

	// the forum is gated until the student enrols
	if rec = app.request(t, http.MethodGet, "/v1/courses/"+crs.ID+"/forum", studentToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("forum before enrolment = %d, want 403", rec.Code)
	}

	if rec = app.request(t, http.MethodPost, "/v1/courses/"+crs.ID+"/enrol", studentToken, nil); rec.Code != http.StatusCreated {
		t.Fatalf("enrolment = %d %s, want 201", rec.Code, rec.Body.String())
	}
	// enrolling twice conflicts
	if rec = app.request(t, http.MethodPost, "/v1/courses/"+crs.ID+"/enrol", studentToken, nil); rec.Code != http.StatusConflict {
		t.Errorf("second enrolment = %d, want 409", rec.Code)
	}

	rec = app.request(t, http.MethodGet, "/v1/courses/"+crs.ID+"/forum", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("forum after enrolment = %d %s, want 200", rec.Code, rec.Body.String())
	}
	var frm course.ForumView
	decode(t, rec, &frm)
	if frm.Title != "Programming" {
		t.Errorf("forum title = %q, want the course title", frm.Title)
	}

	rec = app.request(t, http.MethodGet, "/v1/courses/"+crs.ID+"/leaderboard", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard = %d %s, want 200", rec.Code, rec.Body.String())
	}
	var entries []kudos.Entry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].Rank != 1 {
		t.Errorf("leaderboard = %+v, want the single enrolment ranked first", entries)
	}

	// unknown course maps to 404
	if rec = app.request(t, http.MethodGet, "/v1/courses/nope", instrToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown course = %d, want 404", rec.Code)
	}
}
