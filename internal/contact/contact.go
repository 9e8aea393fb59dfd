// Package contact accepts contact-form submissions and forwards them to the team.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/pubsub"
	"github.com/a-h/templ"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
)

const (
	submissionIDPrefix = "msg_"
	maxNameLength      = 120
	maxMessageLength   = 5000
)

// ErrInvalidSubmission is matched by every ValidationError.
var ErrInvalidSubmission = errors.New("contact: invalid submission")

// ValidationError lists the rejected form fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "contact: invalid fields: " + strings.Join(keys, ", ")
}

// Is makes errors.Is(err, ErrInvalidSubmission) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

// Submission is one validated contact message.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// NewSubmission validates the form values.
func NewSubmission(name, email, message string, now time.Time) (Submission, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)

	fields := map[string]string{}
	switch {
	case name == "":
		fields["name"] = "Please tell us your name."
	case utf8.RuneCountInString(name) > maxNameLength:
		fields["name"] = "Name is too long."
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "Please enter a valid email address."
	}
	switch {
	case message == "":
		fields["message"] = "Please write a message."
	case utf8.RuneCountInString(message) > maxMessageLength:
		fields["message"] = "Message is too long."
	}
	if len(fields) > 0 {
		return Submission{}, &ValidationError{Fields: fields}
	}
	return Submission{
		ID:          submissionIDPrefix + ulid.Make().String(),
		Name:        name,
		Email:       email,
		Message:     message,
		SubmittedAt: now.UTC(),
	}, nil
}

// Publisher delivers submissions.
type Publisher interface {
	Publish(ctx context.Context, sub Submission) (string, error)
}

// PubSubPublisher publishes submissions to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher constructs a publisher for topic.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("contact publisher: topic is required")
	}
	return &PubSubPublisher{topic: topic, marshal: json.Marshal}, nil
}

// Publish implements Publisher.
func (p *PubSubPublisher) Publish(ctx context.Context, sub Submission) (string, error) {
	data, err := p.marshal(sub)
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"submissionId": sub.ID,
			"kind":         "contact",
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish submission: %w", err)
	}
	return id, nil
}

// LogPublisher writes submissions to the log when no topic is configured.
type LogPublisher struct {
	Logger *zap.Logger
}

// Publish implements Publisher.
func (p LogPublisher) Publish(_ context.Context, sub Submission) (string, error) {
	observability.OrNop(p.Logger).Info("contact submission received",
		zap.String("submission_id", sub.ID),
		zap.String("email", sub.Email),
		zap.Int("message_length", len(sub.Message)),
	)
	return sub.ID, nil
}

// Service validates and publishes submissions.
type Service struct {
	publisher Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService constructs a Service. A nil publisher logs submissions.
func NewService(publisher Publisher, logger *zap.Logger, metrics *observability.Metrics) *Service {
	logger = observability.OrNop(logger)
	if publisher == nil {
		publisher = LogPublisher{Logger: logger}
	}
	return &Service{publisher: publisher, logger: logger, metrics: metrics, now: time.Now}
}

// Submit validates the form and publishes it.
func (s *Service) Submit(ctx context.Context, name, email, message string) (Submission, error) {
	sub, err := NewSubmission(name, email, message, s.now())
	if err != nil {
		s.metrics.ContactSubmitted("invalid")
		return Submission{}, err
	}
	if _, err := s.publisher.Publish(ctx, sub); err != nil {
		s.metrics.ContactSubmitted("error")
		s.logger.Error("contact publish failed", zap.String("submission_id", sub.ID), zap.Error(err))
		return Submission{}, err
	}
	s.metrics.ContactSubmitted("ok")
	return sub, nil
}

// Success renders the confirmation shown after a submission.
func Success(sub Submission) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<div id="contact-result" class="text-center py-8" data-contact-success data-submission-id="`).Text(sub.ID).Raw(`">`)
		hw.Raw(`<i data-lucide="check-circle" class="w-12 h-12 text-green-400 mx-auto mb-4"></i>`)
		hw.Raw(`<h3 class="text-xl font-bold text-white mb-2">Message sent!</h3>`)
		hw.Raw(`<p class="text-gray-400">Thanks `).Text(sub.Name).Raw(`, we'll get back to you soon.</p></div>`)
		return hw.Err()
	})
}

// Errors renders validation messages for the form.
func Errors(err error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<div id="contact-result" class="text-red-400 text-sm space-y-1" data-contact-errors>`)
		var verr *ValidationError
		if errors.As(err, &verr) {
			keys := make([]string, 0, len(verr.Fields))
			for k := range verr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				hw.Raw(`<p data-field="`).Text(k).Raw(`">`).Text(verr.Fields[k]).Raw(`</p>`)
			}
		} else {
			hw.Raw(`<p>Sorry, your message could not be sent. Please email us instead.</p>`)
		}
		hw.Raw(`</div>`)
		return hw.Err()
	})
}
