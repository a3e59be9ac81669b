package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

func TestEmailDispatcher_Process(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	id := completedMeet(store, objects)
	store.subscribers[id] = []models.Subscriber{
		{Email: "parent@example.com", SwimmerName: "Jane Smith"},
		{Email: "coach@example.com", SwimmerName: "Max Doe"},
		{Email: "PARENT@example.com", SwimmerName: "Sam Lee"},
		{Email: "bounce@example.com", SwimmerName: "Jane Smith"},
	}
	mailer := &fakeMailer{fail: map[string]bool{"bounce@example.com": true}}
	f := newEmailDispatcher(store, mailer, 2)

	resp, err := f.Process(context.Background(), &models.EmailDispatchRequest{MeetID: id})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.Sent != 2 || resp.Failed != 1 {
		t.Fatalf("response = %+v, want 2 sent and 1 failed", resp)
	}

	var parent string
	for _, m := range mailer.sent {
		if m.To == "parent@example.com" {
			parent = m.HTML
			if m.Subject != "Winter Invitational: Swim Schedule" {
				t.Errorf("subject = %q", m.Subject)
			}
		}
	}
	for _, want := range []string{"<h2>Jane Smith</h2>", "<h2>Sam Lee</h2>", "#1 Girls 50 Free"} {
		if !strings.Contains(parent, want) {
			t.Errorf("parent email missing %q:\n%s", want, parent)
		}
	}
}

func TestEmailDispatcher_NoSubscribers(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	id := completedMeet(store, objects)
	mailer := &fakeMailer{}
	f := newEmailDispatcher(store, mailer, 4)

	resp, err := f.Process(context.Background(), &models.EmailDispatchRequest{MeetID: id})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.Sent != 0 || resp.Message != "No subscribers" || len(mailer.sent) != 0 {
		t.Fatalf("response = %+v, sent = %d", resp, len(mailer.sent))
	}
}

func TestEmailDispatcher_MissingMeetID(t *testing.T) {
	f := newEmailDispatcher(newFakeStore(), &fakeMailer{}, 1)
	if _, err := f.Process(context.Background(), &models.EmailDispatchRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Process() error = %v, want ErrInvalidRequest", err)
	}
}
