package inmemdb

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/course"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

func setup(t *testing.T) (*DB, course.Repository) {
	db, err := Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return db, NewCourseRepository(db)
}

func TestCourseRepository_CreateCourse(t *testing.T) {
	_, repo := setup(t)

	crs, err := repo.CreateCourse(
		course.Course{Title: "Programming", Code: "comp1511", Session: "21T3", Creator: "u1"},
		course.Forum{Title: "Programming"},
		course.WorkloadOverview{},
	)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}

	// the course always comes with a live forum and workload overview
	if crs.Forum == "" || crs.WorkloadOverview == "" {
		t.Fatalf("course = %+v, want forum and workload ids assigned", crs)
	}
	if _, err = repo.GetForumByID(crs.Forum); err != nil {
		t.Errorf("GetForumByID() failed: %v", err)
	}
	if _, err = repo.GetWorkloadByID(crs.WorkloadOverview); err != nil {
		t.Errorf("GetWorkloadByID() failed: %v", err)
	}
	if crs.Pages == nil || crs.Students == nil {
		t.Error("course collections not initialized")
	}
}

func TestCourseRepository_AddPostToForum(t *testing.T) {
	_, repo := setup(t)
	crs, err := repo.CreateCourse(course.Course{Title: "T"}, course.Forum{Title: "T"}, course.WorkloadOverview{})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	pst, err := repo.CreatePost(crs.Forum, course.Post{Title: "Hi", Question: "Q?", Poster: "u1"})
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}

	// registering the same post again leaves exactly one occurrence
	if err = repo.AddPostToForum(crs.Forum, pst.ID); err != nil {
		t.Fatalf("AddPostToForum() failed: %v", err)
	}
	if err = repo.AddPostToForum(crs.Forum, pst.ID); err != nil {
		t.Fatalf("AddPostToForum() repeat failed: %v", err)
	}
	frm, err := repo.GetForumByID(crs.Forum)
	if err != nil {
		t.Fatalf("GetForumByID() failed: %v", err)
	}
	if len(frm.Posts) != 1 || frm.Posts[0] != pst.ID {
		t.Errorf("forum posts = %v, want exactly one occurrence of %s", frm.Posts, pst.ID)
	}

	if err = repo.AddPostToForum(crs.Forum, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddPostToForum(unknown post) error = %v, want ErrNotFound", err)
	}
}

func TestCourseRepository_returnsCopies(t *testing.T) {
	_, repo := setup(t)
	crs, err := repo.CreateCourse(course.Course{Title: "T"}, course.Forum{Title: "T"}, course.WorkloadOverview{})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	if _, err = repo.CreatePage(crs.ID, course.Page{Title: "Week 1"}); err != nil {
		t.Fatalf("CreatePage() failed: %v", err)
	}

	got, err := repo.GetCourseByID(crs.ID)
	if err != nil {
		t.Fatalf("GetCourseByID() failed: %v", err)
	}
	got.Pages[0] = "clobbered"

	again, _ := repo.GetCourseByID(crs.ID)
	if again.Pages[0] == "clobbered" {
		t.Error("stored course aliased a returned slice")
	}
}

func TestUserRepository_QueryAllUsers_ordering(t *testing.T) {
	db, _ := setup(t)
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	for _, u := range []user.User{
		{Name: "B", Email: "b@test.cd", CreatedAt: now.Add(time.Hour)},
		{Name: "A", Email: "a@test.cd", CreatedAt: now},
		{Name: "C", Email: "c@test.cd", CreatedAt: now}, // ties on CreatedAt break on email
	} {
		if _, err := repo.CreateUser(u); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}

	users, err := repo.QueryAllUsers()
	if err != nil {
		t.Fatalf("QueryAllUsers() failed: %v", err)
	}
	want := []string{"a@test.cd", "c@test.cd", "b@test.cd"}
	for i, u := range users {
		if u.Email != want[i] {
			t.Errorf("users[%d] = %s, want %s", i, u.Email, want[i])
		}
	}
}
