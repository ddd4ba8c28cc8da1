package handlers

import (
	"net/http"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func TestCreateCommentOnUnknownVideo(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/comments/nope", token, commentRequest{Content: "hello"})
	requireStatus(t, rec, http.StatusNotFound)
}

func TestCreateCommentRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.seedUser(t, "alice")
	video := env.seedVideo(t, owner.ID, true)

	rec := env.do(t, http.MethodPost, "/api/v1/comments/"+video.ID, token, commentRequest{Content: "   "})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestListCommentsPaginated(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.seedUser(t, "alice")
	video := env.seedVideo(t, owner.ID, true)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/comments/"+video.ID, token, commentRequest{Content: "comment"})
		requireStatus(t, rec, http.StatusCreated)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/comments/"+video.ID+"?page=1&limit=2", token, nil)
	envelope := requireStatus(t, rec, http.StatusOK)

	var page models.CommentPage
	decodeData(t, envelope, &page)
	if page.TotalCount != 3 || len(page.Comments) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Comments[0].OwnerDetails.Username != "alice" {
		t.Fatalf("expected owner join on comments, got %+v", page.Comments[0].OwnerDetails)
	}
}

// TestCommentThreadLifecycle exercises two users sharing a thread: the author
// can edit and delete their comment, a bystander cannot touch it.
func TestCommentThreadLifecycle(t *testing.T) {
	env := newTestEnv(t)
	bob, bobToken := env.seedUser(t, "bob")
	_, carolToken := env.seedUser(t, "carol")
	video := env.seedVideo(t, bob.ID, true)

	rec := env.do(t, http.MethodPost, "/api/v1/comments/"+video.ID, carolToken, commentRequest{Content: "great video"})
	envelope := requireStatus(t, rec, http.StatusCreated)

	var comment models.Comment
	decodeData(t, envelope, &comment)

	// Carol edits her own comment.
	rec = env.do(t, http.MethodPatch, "/api/v1/comments/c/"+comment.ID, carolToken, commentRequest{Content: "really great video"})
	envelope = requireStatus(t, rec, http.StatusOK)

	var updated models.Comment
	decodeData(t, envelope, &updated)
	if updated.Content != "really great video" {
		t.Fatalf("comment not updated: %+v", updated)
	}

	// Bob owns the video but not the comment.
	rec = env.do(t, http.MethodPatch, "/api/v1/comments/c/"+comment.ID, bobToken, commentRequest{Content: "hijacked"})
	requireStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodDelete, "/api/v1/comments/c/"+comment.ID, bobToken, nil)
	requireStatus(t, rec, http.StatusForbidden)

	// Carol deletes it; a later update finds nothing.
	rec = env.do(t, http.MethodDelete, "/api/v1/comments/c/"+comment.ID, carolToken, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodPatch, "/api/v1/comments/c/"+comment.ID, carolToken, commentRequest{Content: "too late"})
	requireStatus(t, rec, http.StatusNotFound)
}
