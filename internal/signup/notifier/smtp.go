// Package notifier delivers the post-registration welcome message. Delivery
// is best-effort: the orchestrator absorbs failures after the commit point.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"

	dErrors "enroll/pkg/domain-errors"
)

const welcomeSubject = "Welcome!"

// dialTimeout bounds the SMTP connection attempt so a dead relay cannot stall
// a signup call.
const dialTimeout = 2 * time.Second

// SMTP sends welcome mail through a plain SMTP relay.
type SMTP struct {
	host string
	port int
	from string
}

func NewSMTP(host string, port int, from string) (*SMTP, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	return &SMTP{host: host, port: port, from: from}, nil
}

// SendWelcome builds and delivers the welcome message. Any failure is
// reported as CodeDeliveryFailed; the caller decides whether that is fatal.
func (s *SMTP) SendWelcome(ctx context.Context, to, fullName string, userID int64) error {
	msg := s.buildWelcome(to, fullName, userID)

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	conn, err := (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "dial smtp relay")
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "smtp handshake")
	}
	defer client.Close()

	if err := client.Mail(s.from); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "smtp MAIL FROM")
	}
	if err := client.Rcpt(to); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "smtp RCPT TO")
	}
	w, err := client.Data()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "smtp DATA")
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "write message body")
	}
	if err := w.Close(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "finish message")
	}
	return dErrors.Wrap(client.Quit(), dErrors.CodeDeliveryFailed, "smtp QUIT")
}

func (s *SMTP) buildWelcome(to, fullName string, userID int64) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", welcomeSubject))
	buf.WriteString(fmt.Sprintf("Message-ID: <%s@enroll>\r\n", uuid.New().String()))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(fmt.Sprintf("Hi %s, welcome! Your id is %d.\r\n", fullName, userID))
	return buf.Bytes()
}
