package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"

	"github.com/wneessen/go-mail"
)

func sampleEvent() entities.WorkflowEvent {
	return entities.WorkflowEvent{
		EventID:        "evt-42",
		EventType:      entities.EventTypeFor(entities.OperationReturn),
		RequestID:      "r1",
		Operation:      entities.OperationReturn,
		From:           entities.State{Status: entities.RequestStatusPending, Stage: entities.ApprovalStageAdvertiser},
		To:             entities.State{Status: entities.RequestStatusSentBack, Stage: entities.ApprovalStageAdvertiser},
		ActorID:        "adv-user-1",
		ActorRole:      entities.ActorRoleAdvertiser,
		Reason:         "needs redesign",
		OfferID:        "offer-1",
		OfferName:      "Spring Sale",
		AdvertiserID:   "adv-1",
		AdvertiserName: "Acme",
		PublisherID:    "pub-1",
		OccurredAt:     time.Date(2026, time.August, 3, 14, 5, 0, 0, time.UTC),
	}
}

type capturingMailer struct {
	messages []*mail.Msg
	block    bool
}

func (m *capturingMailer) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	m.messages = append(m.messages, messages...)
	return nil
}

func TestEmailSinkComposesPlainTextMail(t *testing.T) {
	mailer := &capturingMailer{}
	sink, err := NewEmailSink(EmailConfig{
		Host:     "smtp.example.com",
		Username: "mailer",
		Password: "secret",
		From:     "review@example.com",
		To:       []string{"ads@example.com"},
	}, mailer)
	if err != nil {
		t.Fatalf("new email sink failed: %v", err)
	}

	if err := sink.Deliver(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(mailer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(mailer.messages))
	}
	var buf bytes.Buffer
	if _, err := mailer.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("render mail failed: %v", err)
	}
	msg := buf.String()
	for _, want := range []string{
		"review@example.com",
		"ads@example.com",
		"Subject: [creative review] Spring Sale: advertiser returned",
		"Message-ID: <evt-42@creativehub>",
		"text/plain",
		"Change: pending/advertiser -> sent-back/advertiser",
		"Reason: needs redesign",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected mail to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestEmailSinkRequiresRecipients(t *testing.T) {
	if _, err := NewEmailSink(EmailConfig{Host: "smtp.example.com", From: "a@example.com"}, nil); err == nil {
		t.Fatalf("expected missing recipients to be refused")
	}
}

func TestEmailSinkBuildsClientFromConfig(t *testing.T) {
	sink, err := NewEmailSink(EmailConfig{Host: "smtp.example.com", Port: 2525, Username: "mailer", Password: "secret", From: "a@example.com", To: []string{"b@example.com"}}, nil)
	if err != nil {
		t.Fatalf("expected client to be built, got %v", err)
	}
	if _, ok := sink.sender.(*mail.Client); !ok {
		t.Fatalf("expected default sender to be an SMTP client, got %T", sink.sender)
	}
}

func TestEmailSinkHonoursDeadline(t *testing.T) {
	sink, _ := NewEmailSink(EmailConfig{Host: "smtp.example.com", From: "a@example.com", To: []string{"b@example.com"}},
		&capturingMailer{block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := sink.Deliver(ctx, sampleEvent()); err == nil {
		t.Fatalf("expected deadline error from a hung SMTP server")
	}
}

func TestTelegramSinkPostsSendMessage(t *testing.T) {
	var got sendMessageRequest
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	sink, err := NewTelegramSink(TelegramConfig{BotToken: "123:abc", ChatID: "-100", APIURL: server.URL + "/"}, server.Client())
	if err != nil {
		t.Fatalf("new telegram sink failed: %v", err)
	}
	if err := sink.Deliver(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %s", path)
	}
	if got.ChatID != "-100" || !strings.Contains(got.Text, "needs redesign") {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestTelegramSinkReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	sink, _ := NewTelegramSink(TelegramConfig{BotToken: "123:abc", ChatID: "-1", APIURL: server.URL}, server.Client())
	err := sink.Deliver(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestLogSinkWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	if err := sink.Deliver(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if line["event"] != "workflow_notification_logged" || line["request_id"] != "r1" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
