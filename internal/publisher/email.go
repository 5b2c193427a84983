package publisher

import (
	"context"
	"fmt"
	"html"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/ryosukesatoh/daily-hot/internal/render"
	"github.com/ryosukesatoh/daily-hot/internal/translator"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailPublisher sends the home page as an HTML email via SMTP.
type EmailPublisher struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	send     sendFunc
	now      func() time.Time
}

func NewEmailPublisher(host string, port int, username, password, from string, to []string) *EmailPublisher {
	return &EmailPublisher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (p *EmailPublisher) Name() string { return "email" }

func (p *EmailPublisher) Publish(_ context.Context, digest *translator.Digest) error {
	body, err := buildHTMLBody(digest, p.now())
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	subject := mime.QEncoding.Encode("utf-8", "今日热门 - "+digest.Date.Format("2006-01-02"))
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		p.from,
		strings.Join(p.to, ","),
		subject,
		body,
	)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	if err := p.send(addr, auth, p.from, p.to, []byte(msg)); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

func buildHTMLBody(digest *translator.Digest, now time.Time) (string, error) {
	page, err := render.IndexPage(digest, now)
	if err != nil {
		return "", err
	}
	title, fragment, err := render.HTML([]byte(page))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'PingFang SC', sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; color: #333; }
h1 { color: #1a1a2e; border-bottom: 2px solid #e94560; padding-bottom: 10px; }
h2 { color: #16213e; }
blockquote { color: #666; border-left: 4px solid #ddd; margin: 0; padding-left: 12px; }
</style>`)
	fmt.Fprintf(&sb, "<title>%s</title></head><body>", html.EscapeString(title))
	sb.Write(fragment)
	sb.WriteString("</body></html>")
	return sb.String(), nil
}
