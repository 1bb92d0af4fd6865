package services

import (
	"context"
	"testing"
)

type feedFixture struct {
	composer *FeedComposer
	viewer   uint
	own      []uint
	others   []uint
}

// 交替创建：viewer 两条，其他人两条，按时间倒序为 o2 v2 o1 v1
func newFeedFixture(t *testing.T) feedFixture {
	t.Helper()
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	viewer := createTestUser(t, gdb, "viewer@example.com")
	other := createTestUser(t, gdb, "other@example.com")

	v1 := createTestPost(t, repo, viewer.ID, "/media/v1.jpg")
	o1 := createTestPost(t, repo, other.ID, "/media/o1.mp4")
	v2 := createTestPost(t, repo, viewer.ID, "/media/v2.jpg")
	o2 := createTestPost(t, repo, other.ID, "/media/o2.jpg")

	return feedFixture{
		composer: NewFeedComposer(repo),
		viewer:   viewer.ID,
		own:      []uint{v2.ID, v1.ID},
		others:   []uint{o2.ID, o1.ID},
	}
}

func TestHomeFeedKeepsOwnPostsFirstAndUnfiltered(t *testing.T) {
	f := newFeedFixture(t)
	watched := NewWatchedSet(f.own[0], f.own[1], f.others[0])

	posts, err := f.composer.Compose(context.Background(), FeedHome, f.viewer, watched)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := []uint{f.own[0], f.own[1], f.others[1]}
	if got := postIDs(posts); !equalIDs(got, want) {
		t.Fatalf("unexpected home feed: got %v want %v", got, want)
	}
}

func TestHomeFeedAnonymousExcludesWatched(t *testing.T) {
	f := newFeedFixture(t)
	watched := NewWatchedSet(f.own[0], f.others[1])

	posts, err := f.composer.Compose(context.Background(), FeedHome, 0, watched)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := []uint{f.others[0], f.own[1]}
	if got := postIDs(posts); !equalIDs(got, want) {
		t.Fatalf("unexpected anonymous feed: got %v want %v", got, want)
	}
}

func TestReelsExcludeWatchedEvenOwnPosts(t *testing.T) {
	f := newFeedFixture(t)
	watched := NewWatchedSet(f.own[0])

	posts, err := f.composer.Compose(context.Background(), FeedReels, f.viewer, watched)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := []uint{f.others[0], f.others[1], f.own[1]}
	if got := postIDs(posts); !equalIDs(got, want) {
		t.Fatalf("unexpected reels: got %v want %v", got, want)
	}
	if !posts[1].IsVideo || posts[0].IsVideo {
		t.Fatalf("video flags not set from media path")
	}
}

func TestFeedEmptyWatchedReturnsEverything(t *testing.T) {
	f := newFeedFixture(t)

	posts, err := f.composer.Compose(context.Background(), FeedReels, 0, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(posts) != 4 {
		t.Fatalf("expected all 4 posts, got %d", len(posts))
	}
}
