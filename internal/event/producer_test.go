package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/contactsbook/internal/domain"
	pkgkafka "github.com/utafrali/contactsbook/pkg/kafka"
	"github.com/utafrali/contactsbook/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer(w *fakeWriter) *Producer {
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, newTestLogger()), newTestLogger())
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "contactsbook.user.registered", TopicUserRegistered)
	assert.Equal(t, "contactsbook.contact.deleted", TopicContactDeleted)
}

func TestProducer_PublishUserRegistered(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")

	err := p.PublishUserRegistered(ctx, &domain.User{ID: 3, Username: "alice", Email: "alice@example.com", PasswordHash: "secret"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicUserRegistered, msg.Topic)
	assert.Equal(t, "alice@example.com", string(msg.Key))

	event, err := pkgkafka.UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, AggregateTypeUser, event.AggregateType)
	assert.Equal(t, SourceContactsBook, event.Source)
	assert.Equal(t, "corr-9", event.CorrelationID)
	assert.NotContains(t, string(event.Data), "secret")

	var data UserData
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, UserData{ID: 3, Username: "alice", Email: "alice@example.com"}, data)
}

func TestProducer_PublishContactEvents(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	c := &domain.Contact{ID: 11, UserID: 3, FirstName: "Bob", LastName: "Smith", Email: "bob@example.com"}

	require.NoError(t, p.PublishContactCreated(context.Background(), c))
	require.NoError(t, p.PublishContactUpdated(context.Background(), c))
	require.NoError(t, p.PublishContactDeleted(context.Background(), c))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, TopicContactCreated, w.msgs[0].Topic)
	assert.Equal(t, TopicContactUpdated, w.msgs[1].Topic)
	assert.Equal(t, TopicContactDeleted, w.msgs[2].Topic)
	assert.Equal(t, "11", string(w.msgs[0].Key))

	event, err := pkgkafka.UnmarshalEvent(w.msgs[2].Value)
	require.NoError(t, err)
	var data ContactData
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, ContactData{ID: 11, UserID: 3, FirstName: "Bob", LastName: "Smith"}, data)
}

func TestProducer_PublishError(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: errors.New("leader not available")})

	err := p.PublishAvatarUpdated(context.Background(), &domain.User{ID: 1, Email: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicUserAvatarUpdated)
}

func TestProducer_Disabled(t *testing.T) {
	p := NewProducer(nil, newTestLogger())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.PublishEmailConfirmed(context.Background(), &domain.User{Email: "a@example.com"}))
}

func TestProducer_LogFailure(t *testing.T) {
	var buf strings.Builder
	p := NewProducer(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	p.LogFailure(context.Background(), nil)
	assert.Empty(t, buf.String())

	p.LogFailure(context.Background(), errors.New("broker down"), slog.Int64("contact_id", 4))
	assert.Contains(t, buf.String(), "failed to publish event")
	assert.Contains(t, buf.String(), "contact_id=4")
	assert.Contains(t, buf.String(), "broker down")
}
