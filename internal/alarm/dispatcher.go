package alarm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/database"
)

// Dispatcher broadcasts composed alarms to the sender's group.
type Dispatcher struct {
	logger        *slog.Logger
	registry      Registry
	transport     Transport
	header        string
	workers       int
	sendTimeout   time.Duration
	lookupTimeout time.Duration
	limiter       *rate.Limiter
}

// NewDispatcher creates a dispatcher. header is the alarm header template
// (see FormatAlarm).
func NewDispatcher(logger *slog.Logger, registry Registry, transport Transport, cfg config.BroadcastConfig, header string) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultBroadcastWorkers
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = config.DefaultBroadcastRatePerSec
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = config.DefaultBroadcastSendTimeout
	}
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = config.DefaultBroadcastLookupTimeout
	}

	return &Dispatcher{
		logger:        logger.With("component", "dispatcher"),
		registry:      registry,
		transport:     transport,
		header:        header,
		workers:       workers,
		sendTimeout:   sendTimeout,
		lookupTimeout: lookupTimeout,
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Dispatch delivers p to every other member of the sender's current group.
//
// The sender's group is re-read here; ErrNoGroup and ErrNoRecipients are
// returned without sending anything. Every recipient gets exactly one
// attempt and a failed attempt never stops the others. Once recipients are
// resolved the broadcast runs to completion even if ctx is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) (Result, error) {
	res := Result{ID: uuid.NewString()}
	log := d.logger.With("broadcast_id", res.ID, "sender_id", p.SenderID)

	groupID, err := d.senderGroup(ctx, p.SenderID)
	if err != nil {
		return res, fmt.Errorf("failed to resolve sender group: %w", err)
	}
	if groupID == "" {
		log.WarnContext(ctx, "Sender has no group at dispatch time")
		return res, ErrNoGroup
	}
	if p.GroupID != "" && p.GroupID != groupID {
		log.InfoContext(ctx, "Sender group changed while composing", "draft_group_id", p.GroupID, "group_id", groupID)
	}

	members, err := d.groupMembers(ctx, groupID)
	if err != nil {
		return res, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	recipients := make([]database.User, 0, len(members))
	for _, m := range members {
		if m.UserID != p.SenderID {
			recipients = append(recipients, m)
		}
	}
	if len(recipients) == 0 {
		log.InfoContext(ctx, "No recipients in group", "group_id", groupID)
		return res, ErrNoRecipients
	}
	res.Total = len(recipients)

	msg := FormatAlarm(d.header, senderLabel(p), groupID, p.Text)
	log = log.With("group_id", groupID, "total", res.Total)
	if p.Media != nil {
		log = log.With("media", p.Media.Kind.String())
	}
	log.InfoContext(ctx, "Broadcast started")
	startTime := time.Now()

	runCtx := context.WithoutCancel(ctx)
	var succeeded atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(d.workers)
	for _, r := range recipients {
		g.Go(func() error {
			if err := d.deliver(runCtx, r.UserID, msg, p.Media); err != nil {
				log.WarnContext(ctx, "Alarm delivery failed",
					"recipient_id", r.UserID, "recipient_name", r.DisplayName, "error", err)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res.Succeeded = int(succeeded.Load())

	fields := []any{"succeeded", res.Succeeded, "failed", res.Failed(), "duration", time.Since(startTime)}
	if res.Failed() > 0 {
		log.WarnContext(ctx, "Broadcast finished with failures", fields...)
	} else {
		log.InfoContext(ctx, "Broadcast finished", fields...)
	}

	return res, nil
}

func (d *Dispatcher) senderGroup(ctx context.Context, senderID int64) (string, error) {
	dbCtx, cancel := context.WithTimeout(ctx, d.lookupTimeout)
	defer cancel()
	return d.registry.GetUserGroup(dbCtx, senderID)
}

func (d *Dispatcher) groupMembers(ctx context.Context, groupID string) ([]database.User, error) {
	dbCtx, cancel := context.WithTimeout(ctx, d.lookupTimeout)
	defer cancel()
	return d.registry.GetUsersByGroup(dbCtx, groupID)
}

// deliver makes one bounded attempt to send msg to a recipient. The send
// runs in its own goroutine so a transport that ignores ctx cannot stall
// the broadcast past sendTimeout.
func (d *Dispatcher) deliver(ctx context.Context, recipientID int64, msg string, media *conversation.Media) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrDelivery, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.send(sendCtx, recipientID, msg, media)
	}()

	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		// A send that finished right at the deadline still counts.
		select {
		case err = <-done:
		default:
			err = sendCtx.Err()
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, recipientID int64, msg string, media *conversation.Media) error {
	if media == nil {
		return d.transport.SendText(ctx, recipientID, msg)
	}

	switch media.Kind {
	case conversation.MediaPhoto:
		return d.transport.SendPhoto(ctx, recipientID, media.FileID, msg)
	case conversation.MediaVideo:
		return d.transport.SendVideo(ctx, recipientID, media.FileID, msg)
	default:
		return fmt.Errorf("unsupported media kind %d", media.Kind)
	}
}
