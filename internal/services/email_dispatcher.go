package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/notify"
)

// EmailDispatcherFunction holds dependencies for the email logic.
type EmailDispatcherFunction struct {
	store       meetRepository
	mailer      notify.Mailer
	concurrency int
}

// NewEmailDispatcher creates a new EmailDispatcherFunction instance. It fails
// when SMTP credentials are missing.
func NewEmailDispatcher(ctx context.Context) (*EmailDispatcherFunction, error) {
	base, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	mailer := notify.NewSMTPMailerFromEnv()
	if !mailer.IsConfigured() {
		return nil, fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD must be set: %w", notify.ErrNotConfigured)
	}
	store, err := newMeetRepository(ctx, base)
	if err != nil {
		return nil, err
	}
	return newEmailDispatcher(store, mailer, gcp.GetEnvInt("EMAIL_CONCURRENCY", 4)), nil
}

func newEmailDispatcher(store meetRepository, mailer notify.Mailer, concurrency int) *EmailDispatcherFunction {
	return &EmailDispatcherFunction{store: store, mailer: mailer, concurrency: max(concurrency, 1)}
}

// Process emails every subscriber of the meet their swimmers' schedule.
// Individual send failures are counted, not returned.
func (f *EmailDispatcherFunction) Process(ctx context.Context, req *models.EmailDispatchRequest) (*models.EmailDispatchResponse, error) {
	if req.ExecutionID == "" {
		req.ExecutionID = uuid.NewString()
	}
	logCtx := slog.With("meetId", req.MeetID, "executionId", req.ExecutionID)
	if req.MeetID == "" {
		return nil, fmt.Errorf("%w: meetId is required", ErrInvalidRequest)
	}

	meet, events, err := loadCompletedMeet(ctx, f.store, req.MeetID)
	if err != nil {
		logCtx.Error("Failed to load meet", "error", err)
		return nil, err
	}
	subs, err := f.store.LoadSubscribers(ctx, req.MeetID)
	if err != nil {
		logCtx.Error("Failed to load subscribers", "error", err)
		return nil, err
	}

	recipients := notify.GroupByEmail(subs)
	if len(recipients) == 0 {
		logCtx.Info("No subscribers; nothing to send.")
		return &models.EmailDispatchResponse{Status: "success", Message: "No subscribers"}, nil
	}

	meetName := notify.MeetName(meet.OriginalFilename)
	var sent, failed atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(f.concurrency)
	for _, r := range recipients {
		eg.Go(func() error {
			if err := f.sendSchedule(ctx, meetName, r, events); err != nil {
				logCtx.Warn("Failed to send schedule", "email", r.Email, "error", err)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = eg.Wait()

	logCtx.Info("Email dispatch complete.", "recipients", len(recipients), "sent", sent.Load(), "failed", failed.Load())
	return &models.EmailDispatchResponse{
		Status: "success",
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
	}, nil
}

func (f *EmailDispatcherFunction) sendSchedule(ctx context.Context, meetName string, r notify.Recipient, events []models.EventRecord) error {
	schedule, err := notify.ComposeSchedule(meetName, r.Swimmers, events)
	if err != nil {
		return err
	}
	return f.mailer.Send(ctx, notify.Message{To: r.Email, Subject: schedule.Subject, HTML: schedule.HTML})
}
