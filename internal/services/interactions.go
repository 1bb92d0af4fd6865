package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"redvibe/internal/models"

	"go.uber.org/zap"
)

// UploadSource 上传文件需要读两次：校验一次，存储一次
type UploadSource struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Interactions 需要登录用户的操作：点赞、评论、举报、上传
type Interactions struct {
	posts     *PostRepository
	validator *MediaValidator
	storage   MediaStorage
	log       *zap.Logger
}

func NewInteractions(posts *PostRepository, validator *MediaValidator, storage MediaStorage, log *zap.Logger) *Interactions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interactions{
		posts:     posts,
		validator: validator,
		storage:   storage,
		log:       log,
	}
}

// ToggleLike 返回切换后的状态和最新点赞数
func (s *Interactions) ToggleLike(ctx context.Context, actor *models.User, postID uint) (LikeStatus, int64, error) {
	if actor == nil {
		return "", 0, ErrUnauthenticated
	}
	status, err := s.posts.ToggleLike(ctx, postID, actor.ID)
	if err != nil {
		return "", 0, err
	}
	likes, err := s.posts.LikeCount(ctx, postID)
	if err != nil {
		return "", 0, err
	}
	return status, likes, nil
}

func (s *Interactions) Comment(ctx context.Context, actor *models.User, postID uint, text string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	comment, err := s.posts.AddComment(ctx, postID, actor.ID, text)
	if err != nil {
		return nil, err
	}
	comment.User = *actor
	return comment, nil
}

func (s *Interactions) Report(ctx context.Context, actor *models.User, postID uint, reason, details string) (*models.Report, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	report, err := s.posts.AddReport(ctx, postID, actor.ID, reason, details)
	if err != nil {
		return nil, err
	}
	s.log.Info("post reported",
		zap.Uint("post_id", postID),
		zap.Uint("reporter_id", actor.ID),
		zap.String("reason", report.Reason),
	)
	return report, nil
}

// Upload 校验、存储、建帖；建帖失败时删除已存储的文件
func (s *Interactions) Upload(ctx context.Context, actor *models.User, src UploadSource, description string) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if src.Open == nil || src.Name == "" {
		return nil, fmt.Errorf("%w: no file uploaded", ErrValidation)
	}

	media, err := s.validate(ctx, src)
	if err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			s.log.Info("upload rejected",
				zap.Uint("user_id", actor.ID),
				zap.String("file", src.Name),
				zap.String("reason", string(rej.Reason)),
			)
		}
		return nil, err
	}

	key := NewObjectKey(media.Ext)
	url, err := s.store(ctx, src, key, media)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.CreatePost(ctx, actor.ID, media.WithPath(url), description)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn("remove orphaned media", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.log.Info("post created",
		zap.Uint("post_id", post.ID),
		zap.Uint("user_id", actor.ID),
		zap.String("kind", string(media.Kind)),
		zap.Int64("size", media.Size),
		zap.Float64("duration", media.Duration),
	)
	return post, nil
}

func (s *Interactions) validate(ctx context.Context, src UploadSource) (Media, error) {
	f, err := src.Open()
	if err != nil {
		return Media{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.validator.Validate(ctx, Upload{Name: src.Name, Size: src.Size, Content: f})
}

func (s *Interactions) store(ctx context.Context, src UploadSource, key string, media Media) (string, error) {
	f, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	url, err := s.storage.Put(ctx, key, f, media.Size, ContentTypeFor(media.Ext))
	if err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}
	return url, nil
}
