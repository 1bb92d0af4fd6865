package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// 上传白名单
var allowedExtensions = map[string]MediaKind{
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".png":  MediaImage,
	".mp4":  MediaVideo,
	".mov":  MediaVideo,
	".webm": MediaVideo,
}

type RejectReason string

const (
	RejectUnsupportedType  RejectReason = "unsupported_type"
	RejectTooLarge         RejectReason = "too_large"
	RejectTooLong          RejectReason = "too_long"
	RejectInspectionFailed RejectReason = "inspection_failed"
)

// RejectionError 上传被拒绝的原因
type RejectionError struct {
	Reason RejectReason
	Detail string
	Err    error
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return "upload rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("upload rejected: %s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Message 面向用户的提示文案
func (e *RejectionError) Message() string {
	switch e.Reason {
	case RejectUnsupportedType:
		return "Unsupported file type."
	case RejectTooLarge:
		return "File size exceeds " + e.Detail + "."
	case RejectTooLong:
		return "Video duration exceeds " + e.Detail + "."
	case RejectInspectionFailed:
		return "Error processing video: " + e.Detail
	}
	return "Upload rejected."
}

// Upload 一次上传的原始输入
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Media 通过校验的媒体。只有 MediaValidator 能产出 accepted 的值
type Media struct {
	Name     string
	Ext      string
	Kind     MediaKind
	Size     int64
	Duration float64
	Path     string

	accepted bool
}

func (m Media) Accepted() bool {
	return m.accepted
}

func (m Media) IsVideo() bool {
	return m.Kind == MediaVideo
}

// WithPath 返回带存储地址的副本
func (m Media) WithPath(p string) Media {
	m.Path = p
	return m
}

// DurationInspector 外部视频时长探测
type DurationInspector interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type MediaValidator struct {
	maxBytes        int64
	maxVideoSeconds float64
	inspector       DurationInspector
	tempDir         string
}

func NewMediaValidator(maxBytes int64, maxVideoSeconds float64, inspector DurationInspector) *MediaValidator {
	return &MediaValidator{
		maxBytes:        maxBytes,
		maxVideoSeconds: maxVideoSeconds,
		inspector:       inspector,
	}
}

// WithTempDir 指定视频暂存目录，空字符串表示系统默认
func (v *MediaValidator) WithTempDir(dir string) *MediaValidator {
	v.tempDir = dir
	return v
}

// Validate 依次检查扩展名、大小、视频时长
func (v *MediaValidator) Validate(ctx context.Context, u Upload) (Media, error) {
	ext := strings.ToLower(filepath.Ext(u.Name))
	kind, ok := allowedExtensions[ext]
	if !ok {
		return Media{}, &RejectionError{Reason: RejectUnsupportedType, Detail: ext}
	}

	if u.Size > v.maxBytes {
		return Media{}, &RejectionError{Reason: RejectTooLarge, Detail: FormatMB(v.maxBytes)}
	}

	m := Media{
		Name: u.Name,
		Ext:  ext,
		Kind: kind,
		Size: u.Size,
	}

	if kind == MediaVideo {
		duration, err := v.inspect(ctx, u.Content, ext)
		if err != nil {
			return Media{}, &RejectionError{Reason: RejectInspectionFailed, Detail: err.Error(), Err: err}
		}
		if duration > v.maxVideoSeconds {
			return Media{}, &RejectionError{Reason: RejectTooLong, Detail: fmt.Sprintf("%g seconds", v.maxVideoSeconds)}
		}
		m.Duration = duration
	}

	m.accepted = true
	return m, nil
}

// inspect 把内容写入临时文件后交给 inspector，临时文件在任何情况下都会删除
func (v *MediaValidator) inspect(ctx context.Context, content io.Reader, ext string) (float64, error) {
	if v.inspector == nil {
		return 0, errors.New("duration inspector is not configured")
	}
	if content == nil {
		return 0, errors.New("empty upload content")
	}

	tmp, err := os.CreateTemp(v.tempDir, "upload-*"+ext)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, copyErr := io.Copy(tmp, content)
	closeErr := tmp.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("stage upload: %w", copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("stage upload: %w", closeErr)
	}

	duration, err := v.inspector.Duration(ctx, tmpPath)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return 0, fmt.Errorf("invalid duration %v", duration)
	}
	return duration, nil
}

// FormatMB 以 MB 展示字节上限
func FormatMB(n int64) string {
	mb := float64(n) / (1024 * 1024)
	return fmt.Sprintf("%gMB", math.Round(mb*100)/100)
}
