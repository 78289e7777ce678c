package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/podforge/podforge/pkg/podcast"
)

// captureLog redirects the default logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestLogFailure_RateLimitSuggestsRetry(t *testing.T) {
	buf := captureLog(t)

	logFailure(&podcast.AudioError{
		Stage:   podcast.StageSpeech,
		Section: 1,
		Err: &podcast.RateLimitError{
			RetryAfter: 30 * time.Second,
			Err:        errors.New("throttled"),
		},
	})

	out := buf.String()
	if !strings.Contains(out, "try again shortly") {
		t.Errorf("rate-limited failure should tell the user to retry, got:\n%s", out)
	}
	if !strings.Contains(out, "retry_after=30s") {
		t.Errorf("log should carry the provider's retry-after hint, got:\n%s", out)
	}
}

func TestLogFailure_StageContext(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			"generation error",
			&podcast.GenerationError{Stage: podcast.StageOutline, Section: -1, Err: errors.New("bad json")},
			[]string{"script generation failed", "stage=outline"},
		},
		{
			"audio error",
			&podcast.AudioError{Stage: podcast.StageSpeech, Section: 2, Err: errors.New("socket closed")},
			[]string{"audio production failed", "stage=speech", "section=2"},
		},
		{
			"plain error",
			errors.New("mystery"),
			[]string{"generation failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			logFailure(tt.err)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("log missing %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}
