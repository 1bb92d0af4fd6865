package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"redvibe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxCommentLength = 2000
	maxReasonLength  = 50
)

type LikeStatus string

const (
	LikeStatusLiked   LikeStatus = "liked"
	LikeStatusUnliked LikeStatus = "unliked"
)

var reportReasons = map[string]bool{
	models.ReportReasonSpam:       true,
	models.ReportReasonNudity:     true,
	models.ReportReasonViolence:   true,
	models.ReportReasonHarassment: true,
	models.ReportReasonCopyright:  true,
	models.ReportReasonOther:      true,
}

// PostFilter 零值字段表示不过滤
type PostFilter struct {
	ExcludeIDs       []uint
	CreatorID        uint
	ExcludeCreatorID uint
	Limit            int
}

// PostRepository 帖子、评论、举报、点赞的读写
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, creatorID uint, media Media, description string) (*models.Post, error) {
	if !media.Accepted() || media.Path == "" {
		return nil, fmt.Errorf("%w: media was not accepted", ErrValidation)
	}
	if creatorID == 0 {
		return nil, fmt.Errorf("%w: missing creator", ErrValidation)
	}

	post := models.Post{
		UserID:      creatorID,
		MediaPath:   media.Path,
		Description: strings.TrimSpace(description),
	}
	if err := r.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.IsVideo = models.IsVideoPath(post.MediaPath)
	return &post, nil
}

// withRelations 预加载作者与按时间正序的评论
func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.User")
}

func (r *PostRepository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := withRelations(r.db.WithContext(ctx)).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	post.IsVideo = models.IsVideoPath(post.MediaPath)
	return &post, nil
}

// ListPosts 按创建时间倒序，同一时间按 id 倒序
func (r *PostRepository) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.CreatorID != 0 {
		q = q.Where("posts.user_id = ?", f.CreatorID)
	}
	if f.ExcludeCreatorID != 0 {
		q = q.Where("posts.user_id <> ?", f.ExcludeCreatorID)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("posts.id NOT IN ?", f.ExcludeIDs)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var posts []models.Post
	if err := withRelations(q).Order("posts.created_at DESC").Order("posts.id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		posts[i].IsVideo = models.IsVideoPath(posts[i].MediaPath)
	}
	return posts, nil
}

func (r *PostRepository) PostExists(ctx context.Context, id uint) (bool, error) {
	return postExists(r.db.WithContext(ctx), id)
}

func postExists(tx *gorm.DB, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check post %d: %w", id, err)
	}
	return count > 0, nil
}

// ToggleLike 已赞则取消，否则点赞。并发下以最后一次写入为准
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID uint) (LikeStatus, error) {
	var status LikeStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := postExists(tx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return fmt.Errorf("remove like: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			status = LikeStatusUnliked
			return nil
		}

		like := models.PostLike{PostID: postID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return fmt.Errorf("add like: %w", err)
		}
		status = LikeStatusLiked
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *PostRepository) LikeCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (r *PostRepository) IsLiked(ctx context.Context, postID, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

func (r *PostRepository) AddComment(ctx context.Context, postID, userID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is empty", ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrValidation, MaxCommentLength)
	}

	comment := models.Comment{
		PostID: postID,
		UserID: userID,
		Text:   text,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := postExists(tx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *PostRepository) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddReport 同一用户重复举报不做去重。未知原因记为 other，原文保留在 Details 开头
func (r *PostRepository) AddReport(ctx context.Context, postID, reporterID uint, reason, details string) (*models.Report, error) {
	report := models.Report{
		PostID:  postID,
		UserID:  reporterID,
		Reason:  NormalizeReportReason(reason),
		Details: reportDetails(reason, details),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := postExists(tx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if err := tx.Create(&report).Error; err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports postID 为 0 时返回全部，最新的在前
func (r *PostRepository) ListReports(ctx context.Context, postID uint) ([]models.Report, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if postID != 0 {
		q = q.Where("post_id = ?", postID)
	}
	var reports []models.Report
	if err := q.Order("created_at DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func reportDetails(reason, details string) string {
	details = strings.TrimSpace(details)
	raw := strings.TrimSpace(reason)
	if raw == "" || reportReasons[strings.ToLower(raw)] {
		return details
	}
	if utf8.RuneCountInString(raw) > maxReasonLength {
		raw = string([]rune(raw)[:maxReasonLength])
	}
	if details == "" {
		return "Reason: " + raw
	}
	return "Reason: " + raw + "\n\n" + details
}

// NormalizeReportReason 未知或空的原因记为 other
func NormalizeReportReason(reason string) string {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if reportReasons[reason] {
		return reason
	}
	return models.ReportReasonOther
}

// Annotate 批量填充点赞数、评论数以及当前用户是否已赞
func (r *PostRepository) Annotate(ctx context.Context, posts []models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}

	var likeCounts []countResult
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeCounts).Error
	if err != nil {
		return fmt.Errorf("count likes: %w", err)
	}

	var commentCounts []countResult
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts).Error
	if err != nil {
		return fmt.Errorf("count comments: %w", err)
	}

	likeMap := make(map[uint]int, len(likeCounts))
	for _, c := range likeCounts {
		likeMap[c.PostID] = c.Count
	}
	commentMap := make(map[uint]int, len(commentCounts))
	for _, c := range commentCounts {
		commentMap[c.PostID] = c.Count
	}

	liked := make(map[uint]bool)
	if viewerID != 0 {
		var likedIDs []uint
		err := r.db.WithContext(ctx).Model(&models.PostLike{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &likedIDs).Error
		if err != nil {
			return fmt.Errorf("load viewer likes: %w", err)
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	for i := range posts {
		posts[i].IsVideo = models.IsVideoPath(posts[i].MediaPath)
		posts[i].LikeCount = likeMap[posts[i].ID]
		posts[i].CommentCount = commentMap[posts[i].ID]
		posts[i].Liked = liked[posts[i].ID]
	}
	return nil
}

// DeletePost 显式删除点赞、评论、举报后再删帖子
func (r *PostRepository) DeletePost(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Report{}).Error; err != nil {
			return fmt.Errorf("delete reports: %w", err)
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
