// internal/service/email/service.go
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dialTimeout = 10 * time.Second

// Config describes the SMTP relay. Secure selects implicit TLS (port 465);
// otherwise STARTTLS is used when the server offers it.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
	Secure   bool
}

// EmailSender delivers HTML mail through one SMTP relay.
type EmailSender struct {
	cfg  Config
	from mail.Address
	now  func() time.Time
}

func NewEmailSender(cfg Config) *EmailSender {
	return &EmailSender{
		cfg:  cfg,
		from: mail.Address{Name: cfg.FromName, Address: cfg.Username},
		now:  time.Now,
	}
}

// Send wraps bodyHTML in the helloFixo layout and delivers it to one recipient.
func (e *EmailSender) Send(to, subject, bodyHTML string) error {
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	client, err := e.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if e.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(e.from.Address); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(rcpt.Address); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(e.compose(rcpt, subject, bodyHTML)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return client.Quit()
}

func (e *EmailSender) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)
	tlsConfig := &tls.Config{ServerName: e.cfg.Host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{Timeout: dialTimeout}

	var conn net.Conn
	var err error
	if e.cfg.Secure {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(2 * dialTimeout))

	client, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if !e.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}
	}
	return client, nil
}

func (e *EmailSender) compose(to *mail.Address, subject, bodyHTML string) []byte {
	var b bytes.Buffer
	domain := e.cfg.Host
	if at := strings.LastIndex(e.from.Address, "@"); at >= 0 {
		domain = e.from.Address[at+1:]
	}

	fmt.Fprintf(&b, "From: %s\r\n", e.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(buildHTMLTemplate(bodyHTML))
	return b.Bytes()
}

// buildHTMLTemplate wraps a body in the helloFixo email layout.
func buildHTMLTemplate(content string) string {
	header := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8" />
		<title>helloFixo</title>
		<style>
			body { font-family: Arial, sans-serif; background-color: #f4f6f9; padding: 30px; }
			.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
			.header { background: #ff6b00; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
			.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
			.body { padding: 25px; color: #333; line-height: 1.6; }
		</style>
	</head>
	<body>
	<div class="container">
		<div class="header">helloFixo</div>
		<div class="body">
	`

	footer := `
		</div>
		<div class="footer">
			<p>Doorstep repairs by verified technicians.</p>
		</div>
	</div>
	</body>
	</html>
	`

	return header + strings.TrimSpace(content) + footer
}
