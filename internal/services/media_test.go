package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

const testMaxBytes = 100 * 1024 * 1024

type fakeInspector struct {
	duration float64
	err      error
	calls    int
	seenPath string
}

func (f *fakeInspector) Duration(_ context.Context, path string) (float64, error) {
	f.calls++
	f.seenPath = path
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return f.duration, f.err
}

func rejectReason(t *testing.T, err error) RejectReason {
	t.Helper()
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RejectionError, got %v", err)
	}
	return rej.Reason
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	v := NewMediaValidator(testMaxBytes, 120, &fakeInspector{})
	_, err := v.Validate(context.Background(), Upload{Name: "virus.exe", Size: 10, Content: strings.NewReader("MZ")})
	if got := rejectReason(t, err); got != RejectUnsupportedType {
		t.Fatalf("unexpected reason: got %s want %s", got, RejectUnsupportedType)
	}

	var rej *RejectionError
	errors.As(err, &rej)
	if rej.Message() != "Unsupported file type." {
		t.Fatalf("unexpected message %q", rej.Message())
	}
}

func TestValidateRejectsTooLarge(t *testing.T) {
	insp := &fakeInspector{duration: 10}
	v := NewMediaValidator(testMaxBytes, 120, insp)

	for _, name := range []string{"big.jpg", "big.mp4"} {
		_, err := v.Validate(context.Background(), Upload{Name: name, Size: 150 * 1024 * 1024, Content: strings.NewReader("x")})
		if got := rejectReason(t, err); got != RejectTooLarge {
			t.Fatalf("%s: unexpected reason: got %s want %s", name, got, RejectTooLarge)
		}
		var rej *RejectionError
		errors.As(err, &rej)
		if rej.Message() != "File size exceeds 100MB." {
			t.Fatalf("%s: unexpected message %q", name, rej.Message())
		}
	}
	if insp.calls != 0 {
		t.Fatalf("inspector should not run for oversized uploads, ran %d times", insp.calls)
	}
}

func TestValidateVideoDuration(t *testing.T) {
	cases := []struct {
		duration float64
		accepted bool
	}{
		{duration: 119, accepted: true},
		{duration: 120, accepted: true},
		{duration: 120.5, accepted: false},
		{duration: 121, accepted: false},
	}

	for _, tc := range cases {
		insp := &fakeInspector{duration: tc.duration}
		v := NewMediaValidator(testMaxBytes, 120, insp).WithTempDir(t.TempDir())

		m, err := v.Validate(context.Background(), Upload{Name: "clip.MP4", Size: 1024, Content: strings.NewReader("video")})
		if tc.accepted {
			if err != nil {
				t.Fatalf("duration %v: unexpected error %v", tc.duration, err)
			}
			if !m.Accepted() || !m.IsVideo() || m.Duration != tc.duration || m.Ext != ".mp4" {
				t.Fatalf("duration %v: unexpected media %+v", tc.duration, m)
			}
			continue
		}
		if got := rejectReason(t, err); got != RejectTooLong {
			t.Fatalf("duration %v: unexpected reason %s", tc.duration, got)
		}
		var rej *RejectionError
		errors.As(err, &rej)
		if rej.Message() != "Video duration exceeds 120 seconds." {
			t.Fatalf("unexpected message %q", rej.Message())
		}
	}
}

func TestValidateInspectionFailureRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	insp := &fakeInspector{err: errors.New("moov atom not found")}
	v := NewMediaValidator(testMaxBytes, 120, insp).WithTempDir(dir)

	_, err := v.Validate(context.Background(), Upload{Name: "broken.mov", Size: 5, Content: strings.NewReader("junk!")})
	if got := rejectReason(t, err); got != RejectInspectionFailed {
		t.Fatalf("unexpected reason: got %s want %s", got, RejectInspectionFailed)
	}
	if insp.calls != 1 {
		t.Fatalf("expected one inspector call, got %d", insp.calls)
	}
	if !strings.HasSuffix(insp.seenPath, ".mov") {
		t.Fatalf("temp file should keep the extension, got %s", insp.seenPath)
	}
	if _, err := os.Stat(insp.seenPath); !os.IsNotExist(err) {
		t.Fatalf("temp file was not removed: %v", err)
	}
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read temp dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not empty: %d entries", len(entries))
	}

	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RejectionError, got %T", err)
	}
	if got := rej.Message(); got != "Error processing video: moov atom not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidateTempFileRemovedOnSuccess(t *testing.T) {
	dir := t.TempDir()
	insp := &fakeInspector{duration: 30}
	v := NewMediaValidator(testMaxBytes, 120, insp).WithTempDir(dir)

	if _, err := v.Validate(context.Background(), Upload{Name: "ok.webm", Size: 5, Content: strings.NewReader("video")}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp dir not empty: %d entries", len(entries))
	}
}

func TestValidateRejectsInvalidDuration(t *testing.T) {
	insp := &fakeInspector{duration: -1}
	v := NewMediaValidator(testMaxBytes, 120, insp).WithTempDir(t.TempDir())

	_, err := v.Validate(context.Background(), Upload{Name: "neg.mp4", Size: 5, Content: strings.NewReader("video")})
	if got := rejectReason(t, err); got != RejectInspectionFailed {
		t.Fatalf("unexpected reason %s", got)
	}
}

func TestValidateImageSkipsInspector(t *testing.T) {
	insp := &fakeInspector{err: errors.New("should not be called")}
	v := NewMediaValidator(testMaxBytes, 120, insp)

	for _, name := range []string{"a.jpg", "b.JPEG", "c.png"} {
		m, err := v.Validate(context.Background(), Upload{Name: name, Size: 2048})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if !m.Accepted() || m.IsVideo() || m.Kind != MediaImage {
			t.Fatalf("%s: unexpected media %+v", name, m)
		}
	}
	if insp.calls != 0 {
		t.Fatalf("inspector ran %d times for images", insp.calls)
	}
}

func TestValidateVideoWithoutInspector(t *testing.T) {
	v := NewMediaValidator(testMaxBytes, 120, nil)
	_, err := v.Validate(context.Background(), Upload{Name: "a.mp4", Size: 1, Content: strings.NewReader("v")})
	if got := rejectReason(t, err); got != RejectInspectionFailed {
		t.Fatalf("unexpected reason %s", got)
	}
}
