// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package push delivers task snapshots to caller-registered webhooks
// when tasks reach a terminal state.
package push

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/go-a2a/taskcore"
	"github.com/go-a2a/taskcore/server/task"
)

// Defaults for notifier behavior.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultAttemptTimeout = 10 * time.Second
)

// Notifier posts terminal task snapshots to the webhook registered for
// each task. Delivery is best effort: failed attempts are retried with
// exponential backoff and exhaustion is logged, never surfaced to the
// task lifecycle.
type Notifier struct {
	configs        *task.PushConfigStore
	client         *http.Client
	logger         *slog.Logger
	signingKey     []byte
	maxAttempts    int
	initialBackoff time.Duration
	attemptTimeout time.Duration
}

// NotifierConfig holds configuration for a [Notifier].
type NotifierConfig struct {
	// Configs is the per-task webhook registry. Required.
	Configs *task.PushConfigStore

	// Client is the HTTP client used for deliveries. Defaults to a
	// client with a 30s timeout.
	Client *http.Client

	// Logger receives delivery outcomes. Defaults to slog.Default.
	Logger *slog.Logger

	// SigningKey, when set, enables JWT signing of notifications: each
	// request carries a bearer token with the issue time, the task ID,
	// and a SHA-256 digest of the request body, signed with HMAC-SHA256.
	SigningKey []byte

	// MaxAttempts caps delivery attempts per notification. Defaults to
	// DefaultMaxAttempts.
	MaxAttempts int

	// InitialBackoff is the delay after the first failed attempt; it
	// doubles per retry. Defaults to DefaultInitialBackoff.
	InitialBackoff time.Duration

	// AttemptTimeout bounds each individual delivery attempt. Defaults
	// to DefaultAttemptTimeout.
	AttemptTimeout time.Duration
}

// NewNotifier creates a new Notifier.
func NewNotifier(config NotifierConfig) (*Notifier, error) {
	if config.Configs == nil {
		return nil, fmt.Errorf("push config store cannot be nil")
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := config.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultInitialBackoff
	}
	timeout := config.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	return &Notifier{
		configs:        config.Configs,
		client:         client,
		logger:         logger,
		signingKey:     config.SigningKey,
		maxAttempts:    maxAttempts,
		initialBackoff: backoff,
		attemptTimeout: timeout,
	}, nil
}

// Supported reports whether the notifier accepts webhook registrations.
func (n *Notifier) Supported() bool {
	return n != nil
}

// NotifyTask posts the task snapshot to the task's registered webhook.
// It returns once delivery succeeds, the attempts are exhausted, or ctx
// is done. Tasks without a registered webhook are skipped. Callers run
// it on its own goroutine; the error return exists for tests and
// logging wrappers.
func (n *Notifier) NotifyTask(ctx context.Context, t *taskcore.Task) error {
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}

	config, err := n.configs.Get(ctx, t.ID)
	if err != nil {
		n.logger.DebugContext(ctx, "no push notification config registered",
			slog.String("a2a.task_id", t.ID),
		)
		return nil
	}

	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task snapshot: %w", err)
	}

	var lastErr error
	backoff := n.initialBackoff
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		lastErr = n.deliver(ctx, t.ID, config, body)
		if lastErr == nil {
			n.logger.InfoContext(ctx, "push notification delivered",
				slog.String("a2a.task_id", t.ID),
				slog.String("url", config.URL),
				slog.Int("attempt", attempt),
			)
			return nil
		}

		n.logger.WarnContext(ctx, "push notification attempt failed",
			slog.String("a2a.task_id", t.ID),
			slog.String("url", config.URL),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)

		if attempt == n.maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n.logger.ErrorContext(ctx, "push notification delivery exhausted",
		slog.String("a2a.task_id", t.ID),
		slog.String("url", config.URL),
		slog.Int("attempts", n.maxAttempts),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("push notification to %s failed after %d attempts: %w", config.URL, n.maxAttempts, lastErr)
}

// deliver performs one HTTP POST attempt under the per-attempt timeout.
func (n *Notifier) deliver(ctx context.Context, taskID string, config *taskcore.PushNotificationConfig, body []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, n.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range config.Headers {
		req.Header.Set(name, value)
	}
	if config.Token != "" {
		req.Header.Set("X-A2A-Notification-Token", config.Token)
	}

	if len(n.signingKey) > 0 {
		signed, err := n.signRequest(taskID, body)
		if err != nil {
			return fmt.Errorf("sign notification: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+signed)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// signRequest builds the bearer token for a notification. The body
// digest lets the receiver verify payload integrity without sharing
// the raw body with the token verifier.
func (n *Notifier) signRequest(taskID string, body []byte) (string, error) {
	digest := sha256.Sum256(body)

	tok, err := jwt.NewBuilder().
		IssuedAt(time.Now().UTC()).
		Claim("taskId", taskID).
		Claim("requestBodySha256", hex.EncodeToString(digest[:])).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), n.signingKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}
