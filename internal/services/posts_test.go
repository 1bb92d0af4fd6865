package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"redvibe/internal/models"
)

func TestCreatePostRequiresAcceptedMedia(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	u := createTestUser(t, gdb, "a@example.com")

	_, err := repo.CreatePost(context.Background(), u.ID, Media{Path: "/media/x.jpg"}, "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unvalidated media, got %v", err)
	}
}

func TestGetPost(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	u := createTestUser(t, gdb, "a@example.com")
	ctx := context.Background()

	created, err := repo.CreatePost(ctx, u.ID, acceptedMedia("/media/uploads/clip.mp4"), "  hello  ")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if !created.IsVideo || created.Description != "hello" {
		t.Fatalf("unexpected created post %+v", created)
	}

	got, err := repo.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.User.Email != "a@example.com" || !got.IsVideo {
		t.Fatalf("unexpected post %+v", got)
	}

	if _, err := repo.GetPost(ctx, created.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsNewestFirstWithFilters(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	alice := createTestUser(t, gdb, "alice@example.com")
	bob := createTestUser(t, gdb, "bob@example.com")

	p1 := createTestPost(t, repo, alice.ID, "/media/1.jpg")
	p2 := createTestPost(t, repo, bob.ID, "/media/2.jpg")
	p3 := createTestPost(t, repo, alice.ID, "/media/3.jpg")

	all, err := repo.ListPosts(ctx, PostFilter{})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if want := []uint{p3.ID, p2.ID, p1.ID}; !equalIDs(postIDs(all), want) {
		t.Fatalf("unexpected order: got %v want %v", postIDs(all), want)
	}

	mine, _ := repo.ListPosts(ctx, PostFilter{CreatorID: alice.ID})
	if want := []uint{p3.ID, p1.ID}; !equalIDs(postIDs(mine), want) {
		t.Fatalf("unexpected creator filter: got %v want %v", postIDs(mine), want)
	}

	others, _ := repo.ListPosts(ctx, PostFilter{ExcludeCreatorID: alice.ID})
	if want := []uint{p2.ID}; !equalIDs(postIDs(others), want) {
		t.Fatalf("unexpected exclude creator: got %v want %v", postIDs(others), want)
	}

	unseen, _ := repo.ListPosts(ctx, PostFilter{ExcludeIDs: []uint{p3.ID, 999}})
	if want := []uint{p2.ID, p1.ID}; !equalIDs(postIDs(unseen), want) {
		t.Fatalf("unexpected exclude ids: got %v want %v", postIDs(unseen), want)
	}
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	u := createTestUser(t, gdb, "a@example.com")
	p := createTestPost(t, repo, u.ID, "/media/1.jpg")

	status, err := repo.ToggleLike(ctx, p.ID, u.ID)
	if err != nil || status != LikeStatusLiked {
		t.Fatalf("first toggle: status=%s err=%v", status, err)
	}
	if n, _ := repo.LikeCount(ctx, p.ID); n != 1 {
		t.Fatalf("unexpected like count after like: %d", n)
	}
	if liked, _ := repo.IsLiked(ctx, p.ID, u.ID); !liked {
		t.Fatalf("expected post to be liked")
	}

	status, err = repo.ToggleLike(ctx, p.ID, u.ID)
	if err != nil || status != LikeStatusUnliked {
		t.Fatalf("second toggle: status=%s err=%v", status, err)
	}
	if n, _ := repo.LikeCount(ctx, p.ID); n != 0 {
		t.Fatalf("unexpected like count after unlike: %d", n)
	}
}

func TestToggleLikeMissingPost(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	u := createTestUser(t, gdb, "a@example.com")

	if _, err := repo.ToggleLike(context.Background(), 42, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddComment(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	u := createTestUser(t, gdb, "a@example.com")
	p := createTestPost(t, repo, u.ID, "/media/1.jpg")

	for _, text := range []string{"", "   ", strings.Repeat("長", MaxCommentLength+1)} {
		if _, err := repo.AddComment(ctx, p.ID, u.ID, text); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation for %d chars, got %v", len(text), err)
		}
	}

	if _, err := repo.AddComment(ctx, p.ID, u.ID, strings.Repeat("長", MaxCommentLength)); err != nil {
		t.Fatalf("comment at max length should pass: %v", err)
	}
	if _, err := repo.AddComment(ctx, p.ID, u.ID, "first"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := repo.AddComment(ctx, p.ID, u.ID, "  second  "); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	comments, err := repo.ListComments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 3 || comments[1].Text != "first" || comments[2].Text != "second" {
		t.Fatalf("unexpected comments %+v", comments)
	}
	if comments[1].User.ID != u.ID {
		t.Fatalf("comment author not loaded")
	}

	got, _ := repo.GetPost(ctx, p.ID)
	if len(got.Comments) != 3 || got.Comments[2].Text != "second" {
		t.Fatalf("post comments not ordered by creation: %+v", got.Comments)
	}

	if _, err := repo.AddComment(ctx, p.ID+1, u.ID, "orphan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddReportKeepsDuplicatesAndNormalizesReason(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	u := createTestUser(t, gdb, "a@example.com")
	p := createTestPost(t, repo, u.ID, "/media/1.jpg")

	r1, err := repo.AddReport(ctx, p.ID, u.ID, "SPAM", "buy now")
	if err != nil {
		t.Fatalf("add report: %v", err)
	}
	if r1.Reason != models.ReportReasonSpam {
		t.Fatalf("unexpected reason %q", r1.Reason)
	}
	r2, err := repo.AddReport(ctx, p.ID, u.ID, "made-up", "")
	if err != nil {
		t.Fatalf("add report: %v", err)
	}
	if r2.Reason != models.ReportReasonOther {
		t.Fatalf("unknown reason should become other, got %q", r2.Reason)
	}
	if r2.Details != "Reason: made-up" {
		t.Fatalf("raw reason should be kept in details, got %q", r2.Details)
	}
	if r1.Details != "buy now" {
		t.Fatalf("known reason should leave details untouched, got %q", r1.Details)
	}

	reports, err := repo.ListReports(ctx, p.ID)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	if _, err := repo.AddReport(ctx, 999, u.ID, "spam", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddReportKeepsTruncatedRawReason(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	u := createTestUser(t, gdb, "a@example.com")
	p := createTestPost(t, repo, u.ID, "/media/1.jpg")

	long := strings.Repeat("x", 80)
	r, err := repo.AddReport(ctx, p.ID, u.ID, "  "+long+"  ", " stolen from my channel ")
	if err != nil {
		t.Fatalf("add report: %v", err)
	}
	want := "Reason: " + strings.Repeat("x", 50) + "\n\nstolen from my channel"
	if r.Reason != models.ReportReasonOther || r.Details != want {
		t.Fatalf("unexpected report reason=%q details=%q", r.Reason, r.Details)
	}

	r, err = repo.AddReport(ctx, p.ID, u.ID, "", "no reason given")
	if err != nil {
		t.Fatalf("add report: %v", err)
	}
	if r.Details != "no reason given" {
		t.Fatalf("empty reason should not touch details, got %q", r.Details)
	}
}

func TestAnnotate(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	alice := createTestUser(t, gdb, "alice@example.com")
	bob := createTestUser(t, gdb, "bob@example.com")
	p1 := createTestPost(t, repo, alice.ID, "/media/1.mp4")
	p2 := createTestPost(t, repo, alice.ID, "/media/2.jpg")

	repo.ToggleLike(ctx, p1.ID, alice.ID)
	repo.ToggleLike(ctx, p1.ID, bob.ID)
	repo.AddComment(ctx, p2.ID, bob.ID, "nice")

	posts, _ := repo.ListPosts(ctx, PostFilter{})
	if err := repo.Annotate(ctx, posts, bob.ID); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	byID := map[uint]models.Post{}
	for _, p := range posts {
		byID[p.ID] = p
	}
	if got := byID[p1.ID]; got.LikeCount != 2 || !got.Liked || !got.IsVideo || got.CommentCount != 0 {
		t.Fatalf("unexpected annotation for p1: %+v", got)
	}
	if got := byID[p2.ID]; got.LikeCount != 0 || got.Liked || got.IsVideo || got.CommentCount != 1 {
		t.Fatalf("unexpected annotation for p2: %+v", got)
	}
}

func TestDeletePostCascades(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	u := createTestUser(t, gdb, "a@example.com")
	p := createTestPost(t, repo, u.ID, "/media/1.jpg")

	repo.ToggleLike(ctx, p.ID, u.ID)
	repo.AddComment(ctx, p.ID, u.ID, "hi")
	repo.AddReport(ctx, p.ID, u.ID, "spam", "")

	if err := repo.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	var likes, comments, reports int64
	gdb.Model(&models.PostLike{}).Where("post_id = ?", p.ID).Count(&likes)
	gdb.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
	gdb.Model(&models.Report{}).Where("post_id = ?", p.ID).Count(&reports)
	if likes+comments+reports != 0 {
		t.Fatalf("dependent rows left behind: likes=%d comments=%d reports=%d", likes, comments, reports)
	}

	if err := repo.DeletePost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNormalizeReportReason(t *testing.T) {
	cases := map[string]string{
		"spam":        "spam",
		" Nudity ":    "nudity",
		"violence":    "violence",
		"harassment":  "harassment",
		"copyright":   "copyright",
		"other":       "other",
		"":            "other",
		"not-a-thing": "other",
	}
	for in, want := range cases {
		if got := NormalizeReportReason(in); got != want {
			t.Errorf("NormalizeReportReason(%q) = %q, want %q", in, got, want)
		}
	}
}
