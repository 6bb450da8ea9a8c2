// Package mailer delivers decision notifications over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
	"github.com/rs/zerolog"
)

// Config contains SMTP transport credentials.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type templateData struct {
	Name     string
	Decision string
	Feedback string
}

const decisionSubject = "Your internship application decision"

const decisionBody = `<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>Your internship application has been <strong>{{.Decision}}</strong>.</p>
  <p>Evaluator feedback:</p>
  <blockquote>{{.Feedback}}</blockquote>
  <p>Thank you for applying.</p>
</body>
</html>`

// Service sends templated decision emails through an SMTP relay.
type Service struct {
	dialer   *gomail.Dialer
	from     string
	template *template.Template
	logger   zerolog.Logger
}

// New constructs the mailer. Missing credentials are an error so callers can
// decide whether the deployment runs without outbound email.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp credentials must be provided")
	}

	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Service{
		dialer:   gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:     from,
		template: template.Must(template.New("decision").Parse(decisionBody)),
		logger:   logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// SendDecision renders the decision template and hands it to the SMTP relay.
// Delivery is fire-and-forget from the workflow's point of view: the caller
// logs failures but never rolls back the decision.
func (s *Service) SendDecision(ctx context.Context, to, name, verdict, feedback string) error {
	var body bytes.Buffer
	if err := s.template.Execute(&body, templateData{Name: name, Decision: verdict, Feedback: feedback}); err != nil {
		return fmt.Errorf("failed to render decision email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", decisionSubject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send decision email: %w", err)
	}

	s.logger.Info().Str("to", to).Str("decision", verdict).Msg("decision email sent")

	return nil
}
