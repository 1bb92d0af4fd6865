package services

import (
	"context"

	"redvibe/internal/models"
)

type FeedMode int

const (
	// FeedHome 登录用户自己的帖子置顶且不受已看过滤
	FeedHome FeedMode = iota
	// FeedReels 所有人一律只看未看过的帖子
	FeedReels
)

type FeedComposer struct {
	posts *PostRepository
}

func NewFeedComposer(posts *PostRepository) *FeedComposer {
	return &FeedComposer{posts: posts}
}

// Compose viewerID 为 0 表示匿名访客
func (f *FeedComposer) Compose(ctx context.Context, mode FeedMode, viewerID uint, watched WatchedSet) ([]models.Post, error) {
	var (
		posts []models.Post
		err   error
	)

	if mode == FeedHome && viewerID != 0 {
		posts, err = f.homeForViewer(ctx, viewerID, watched)
	} else {
		posts, err = f.posts.ListPosts(ctx, PostFilter{ExcludeIDs: watched.IDs()})
	}
	if err != nil {
		return nil, err
	}

	if err := f.posts.Annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

func (f *FeedComposer) homeForViewer(ctx context.Context, viewerID uint, watched WatchedSet) ([]models.Post, error) {
	own, err := f.posts.ListPosts(ctx, PostFilter{CreatorID: viewerID})
	if err != nil {
		return nil, err
	}
	others, err := f.posts.ListPosts(ctx, PostFilter{
		ExcludeIDs:       watched.IDs(),
		ExcludeCreatorID: viewerID,
	})
	if err != nil {
		return nil, err
	}
	return append(own, others...), nil
}
