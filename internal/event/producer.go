package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/contactsbook/internal/domain"
	pkgkafka "github.com/utafrali/contactsbook/pkg/kafka"
	"github.com/utafrali/contactsbook/pkg/logger"
)

// Kafka topics for contacts book domain events.
var (
	TopicUserRegistered     = pkgkafka.Topic("user", "registered")
	TopicUserEmailConfirmed = pkgkafka.Topic("user", "email_confirmed")
	TopicUserAvatarUpdated  = pkgkafka.Topic("user", "avatar_updated")
	TopicContactCreated     = pkgkafka.Topic("contact", "created")
	TopicContactUpdated     = pkgkafka.Topic("contact", "updated")
	TopicContactDeleted     = pkgkafka.Topic("contact", "deleted")
)

// Aggregate types.
const (
	AggregateTypeUser    = "user"
	AggregateTypeContact = "contact"
)

// SourceContactsBook identifies events originating from this service.
const SourceContactsBook = "contacts-book"

// UserData is the payload of user events.
type UserData struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// ContactData is the payload of contact events.
type ContactData struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Producer publishes domain events to Kafka. A Producer without a Kafka
// producer drops every event, which is how the service runs with Kafka
// disabled.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer. kafka may be nil.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// Enabled reports whether events are sent anywhere.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, AggregateTypeUser, u.Email,
		UserData{ID: u.ID, Username: u.Username, Email: u.Email})
}

// PublishEmailConfirmed publishes a user.email_confirmed event.
func (p *Producer) PublishEmailConfirmed(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserEmailConfirmed, AggregateTypeUser, u.Email,
		UserData{ID: u.ID, Email: u.Email})
}

// PublishAvatarUpdated publishes a user.avatar_updated event.
func (p *Producer) PublishAvatarUpdated(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserAvatarUpdated, AggregateTypeUser, u.Email,
		UserData{ID: u.ID, Email: u.Email, Avatar: u.Avatar})
}

// PublishContactCreated publishes a contact.created event.
func (p *Producer) PublishContactCreated(ctx context.Context, c *domain.Contact) error {
	return p.publishContact(ctx, TopicContactCreated, c)
}

// PublishContactUpdated publishes a contact.updated event.
func (p *Producer) PublishContactUpdated(ctx context.Context, c *domain.Contact) error {
	return p.publishContact(ctx, TopicContactUpdated, c)
}

// PublishContactDeleted publishes a contact.deleted event.
func (p *Producer) PublishContactDeleted(ctx context.Context, c *domain.Contact) error {
	return p.publishContact(ctx, TopicContactDeleted, c)
}

func (p *Producer) publishContact(ctx context.Context, topic string, c *domain.Contact) error {
	return p.publish(ctx, topic, AggregateTypeContact, strconv.FormatInt(c.ID, 10), ContactData{
		ID:        c.ID,
		UserID:    c.UserID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	if !p.Enabled() {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, pkgkafka.Aggregate{Type: aggregateType, ID: aggregateID}, SourceContactsBook, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// LogFailure logs a publish error. Events are best effort and never fail the
// operation that produced them.
func (p *Producer) LogFailure(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	for _, a := range attrs {
		args = append(args, a)
	}
	args = append(args, slog.String("error", err.Error()))
	p.logger.ErrorContext(ctx, "failed to publish event", args...)
}
