package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFprobeInspector 调用 ffprobe 读取容器时长
type FFprobeInspector struct {
	Path    string
	Timeout time.Duration
}

func NewFFprobeInspector(path string, timeout time.Duration) *FFprobeInspector {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobeInspector{Path: path, Timeout: timeout}
}

func (f *FFprobeInspector) Duration(ctx context.Context, path string) (float64, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("ffprobe: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return 0, fmt.Errorf("ffprobe: %s", msg)
		}
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbeDuration(string(out))
}

func parseProbeDuration(out string) (float64, error) {
	value := strings.TrimSpace(out)
	if value == "" || value == "N/A" {
		return 0, errors.New("ffprobe: duration unavailable")
	}
	// 多路流时取第一行
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	d, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", value, err)
	}
	return d, nil
}
