// Package notify pushes crawl progress to the outside world: a JSON
// webhook for downstream consumers and a Redis hash mirrored for the
// admin endpoint. Both targets are best effort; a delivery failure is
// logged and never interrupts the crawl.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
)

const progressKey = "crawler:progress"

type Notifier struct {
	webhookURL string
	client     *http.Client
	redis      *redis.Client
	logger     *zap.SugaredLogger

	mu   sync.Mutex
	last *models.Progress
}

// New builds a notifier. Both webhookURL and rdb may be empty/nil, in
// which case the corresponding target is skipped.
func New(webhookURL string, rdb *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		redis:      rdb,
		logger:     logger.Sugar(),
	}
}

// Progress publishes a progress update and remembers it for the admin
// endpoint.
func (n *Notifier) Progress(ctx context.Context, p models.Progress) {
	n.mu.Lock()
	n.last = &p
	n.mu.Unlock()

	n.logger.Debugw("Publishing progress", "task", p.Task, "done", formatPercent(p.Current, p.Total))

	n.post(ctx, "progress", p)
	n.mirror(ctx, p)
}

// Finish publishes the end-of-task notification.
func (n *Notifier) Finish(ctx context.Context, f models.Finish) {
	n.post(ctx, "finish", f)

	if n.redis != nil {
		if err := n.redis.Del(ctx, progressKey).Err(); err != nil {
			n.logger.Warnw("Failed to clear progress mirror", "error", err)
		}
	}
}

// LastProgress returns the most recent progress update, or nil when no
// task has reported yet.
func (n *Notifier) LastProgress() *models.Progress {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.last == nil {
		return nil
	}

	p := *n.last

	return &p
}

func (n *Notifier) post(ctx context.Context, kind string, payload any) {
	if n.webhookURL == "" {
		return
	}

	body, err := json.Marshal(map[string]any{"type": kind, "data": payload})
	if err != nil {
		n.logger.Errorw("Failed to encode webhook payload", "kind", kind, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Errorw("Failed to build webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warnw("Webhook delivery failed", "kind", kind, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warnw("Webhook rejected payload", "kind", kind, "status", resp.StatusCode)
	}
}

func (n *Notifier) mirror(ctx context.Context, p models.Progress) {
	if n.redis == nil {
		return
	}

	fields := map[string]any{
		"cycle_id": p.CycleID.String(),
		"task":     p.Task,
		"current":  strconv.FormatUint(uint64(p.Current), 10),
		"total":    strconv.FormatUint(uint64(p.Total), 10),
	}
	if p.ETASeconds != nil {
		fields["eta_seconds"] = strconv.FormatUint(*p.ETASeconds, 10)
	}

	if err := n.redis.HSet(ctx, progressKey, fields).Err(); err != nil {
		n.logger.Warnw("Failed to mirror progress to redis", "error", err)
		return
	}

	if err := n.redis.Expire(ctx, progressKey, time.Hour).Err(); err != nil {
		n.logger.Warnw("Failed to set progress ttl", "error", err)
	}
}

func formatPercent(current, total int) string {
	if total <= 0 {
		return "0%"
	}

	return fmt.Sprintf("%.1f%%", float64(current)*100/float64(total))
}
