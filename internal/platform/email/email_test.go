package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"timeclock/internal/platform/config"
)

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("a@example.com", "b@example.com", "Vacation approved\r\nBcc: evil@example.com", "body", time.Unix(0, 0).UTC()))
	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("header injection not stripped: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("unexpected body framing: %q", msg)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), "a", "b", "s", "b"); err != nil {
		t.Fatalf("noop send failed: %v", err)
	}
}
