package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

// CreatePost publishes a new question on the course forum. The poster must be
// enrolled or be an instructor; enrolled posters earn the configured kudos.
func (svc *Service) CreatePost(actorID, courseID string, np NewPost) (Post, error) {
	if err := np.Validate(); err != nil {
		return Post{}, err
	}

	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Post{}, err
	}
	d, err := svc.guard.CanWriteForum(courseID, actorID)
	if err != nil {
		return Post{}, err
	}
	if err = d.Err(); err != nil {
		return Post{}, err
	}

	pst, err := svc.repo.CreatePost(crs.Forum, Post{
		Title:    np.Title,
		Question: np.Question,
		Image:    np.Image,
		Poster:   actorID,
	})
	if err != nil {
		return Post{}, err
	}

	svc.creditActivity(actorID, courseID, core.ActivityPostCreation)
	return pst, nil
}

// CreateResponse answers an existing post on the course forum.
func (svc *Service) CreateResponse(actorID, courseID, postID string, nr NewResponse) (Response, error) {
	if err := nr.Validate(); err != nil {
		return Response{}, err
	}

	if err := svc.postInCourse(courseID, postID); err != nil {
		return Response{}, err
	}
	d, err := svc.guard.CanWriteForum(courseID, actorID)
	if err != nil {
		return Response{}, err
	}
	if err = d.Err(); err != nil {
		return Response{}, err
	}

	rsp, err := svc.repo.CreateResponse(postID, Response{
		Text:       nr.Text,
		Poster:     actorID,
		TimePosted: time.Now().Unix(),
	})
	if err != nil {
		return Response{}, err
	}

	svc.creditActivity(actorID, courseID, core.ActivityResponseCreation)
	return rsp, nil
}

// MarkCorrect flags a response as the accepted answer. Only the instructor who
// owns the course may do this; the response's poster earns the configured kudos.
func (svc *Service) MarkCorrect(actorID, courseID, postID, responseID string) (Response, error) {
	d, err := svc.guard.CanMarkCorrect(courseID, actorID)
	if err != nil {
		return Response{}, err
	}
	if err = d.Err(); err != nil {
		return Response{}, err
	}

	if err = svc.postInCourse(courseID, postID); err != nil {
		return Response{}, err
	}
	pst, err := svc.repo.GetPostByID(postID)
	if err != nil {
		return Response{}, err
	}
	if !contains(pst.Responses, responseID) {
		return Response{}, errors.WithMessage(core.ErrNotFound, "response not found on post")
	}

	rsp, err := svc.repo.GetResponseByID(responseID)
	if err != nil {
		return Response{}, err
	}
	if rsp.Correct {
		return rsp, nil // idempotent; no double credit
	}
	rsp.Correct = true
	if rsp, err = svc.repo.UpdateResponse(rsp); err != nil {
		return Response{}, err
	}

	svc.creditActivity(rsp.Poster, courseID, core.ActivityCorrectAnswer)
	return rsp, nil
}

func (svc *Service) postInCourse(courseID, postID string) error {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	frm, err := svc.repo.GetForumByID(crs.Forum)
	if err != nil {
		return err
	}
	if !contains(frm.Posts, postID) {
		return errors.WithMessage(core.ErrNotFound, "post not found in course forum")
	}
	return nil
}
