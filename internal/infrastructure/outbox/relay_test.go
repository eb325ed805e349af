package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	events    []Event
	published map[uuid.UUID]bool
	failed    map[uuid.UUID]int
}

func newMemRepo() *memRepo {
	return &memRepo{published: map[uuid.UUID]bool{}, failed: map[uuid.UUID]int{}}
}

func (m *memRepo) Insert(ctx context.Context, tx pgx.Tx, e *Event) error {
	m.events = append(m.events, *e)
	return nil
}

func (m *memRepo) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]Event, error) {
	var out []Event
	for _, e := range m.events {
		if !m.published[e.ID] && m.failed[e.ID] < maxAttempts && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	m.published[id] = true
	return nil
}

func (m *memRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	m.failed[id]++
	return nil
}

type recordingPublisher struct {
	topics []string
	failOn string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if p.failOn != "" && topic == p.failOn {
		return errors.New("broker down")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func TestWriterEmit_WrapsEnvelope(t *testing.T) {
	repo := newMemRepo()
	aggID := uuid.New()

	err := NewWriter(repo).Emit(context.Background(), nil, EventPaymentSettled, AggregateGroupOrder, aggID, map[string]string{"txn_ref": "ABC"})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(repo.events[0].Payload, &env))
	assert.Equal(t, repo.events[0].ID, env.EventID)
	assert.Equal(t, EventPaymentSettled, env.EventType)
	assert.JSONEq(t, `{"txn_ref":"ABC"}`, string(env.Data))
}

func TestRelayRunOnce(t *testing.T) {
	repo := newMemRepo()
	w := NewWriter(repo)
	ctx := context.Background()
	require.NoError(t, w.Emit(ctx, nil, EventPaymentSettled, AggregateGroupOrder, uuid.New(), nil))
	require.NoError(t, w.Emit(ctx, nil, EventOrderStatusChanged, AggregateOrder, uuid.New(), nil))

	pub := &recordingPublisher{failOn: "bookstore.order.status_changed"}
	relay := NewRelay(repo, pub, "bookstore.")

	n, err := relay.RunOnce(ctx, 10)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"bookstore.payment.settled"}, pub.topics)

	// lần sau chỉ còn event lỗi
	pub.failOn = ""
	n, err = relay.RunOnce(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, repo.published, 2)
}

func TestRelayWithoutPublisherIsNoop(t *testing.T) {
	n, err := NewRelay(newMemRepo(), nil, "").RunOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}
