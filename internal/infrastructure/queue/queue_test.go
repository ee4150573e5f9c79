package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/domain"
)

// fakeWriter registra los mensajes escritos.
type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

// fakeReader entrega los mensajes en orden y cancela el contexto al vaciarse.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func message(t *testing.T, offset int64, env dto.JobEnvelope) kafka.Message {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

func TestPublish_EscribeEnvelopeConClaveDeNamespace(t *testing.T) {
	fw := &fakeWriter{}
	p := NewPublisherWithWriter(fw, nil)

	env := jobs.TaskReminder("acme", "t-1")
	require.NoError(t, p.Publish(context.Background(), env))
	require.Len(t, fw.msgs, 1)

	assert.Equal(t, "acme", string(fw.msgs[0].Key))
	var got dto.JobEnvelope
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, jobs.JobTaskReminder, got.Name)
	assert.JSONEq(t, `{"task_id":"t-1"}`, string(got.Payload))
}

func TestPublish_PropagaErrorDelWriter(t *testing.T) {
	p := NewPublisherWithWriter(&fakeWriter{err: errors.New("broker caído")}, nil)
	err := p.Publish(context.Background(), jobs.CheckOverdue())
	assert.ErrorContains(t, err, "broker caído")
}

func TestConsumer_ConfirmaSoloAlTerminar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fr := &fakeReader{cancel: cancel, msgs: []kafka.Message{
		message(t, 1, jobs.CheckOverdue()),
		message(t, 2, jobs.TaskReminder("acme", "falta")),
		{Offset: 3, Value: []byte("no es json")},
		message(t, 4, jobs.Cleanup(30)),
	}}

	calls := map[string]int{}
	handle := func(_ context.Context, env dto.JobEnvelope) error {
		calls[env.Name]++
		switch env.Name {
		case jobs.JobTaskReminder:
			return domain.ErrNotFound
		case jobs.JobCleanup:
			if calls[env.Name] < 3 {
				return errors.New("conexión rechazada")
			}
		}
		return nil
	}

	c := NewConsumerWithReader(fr, handle, ConsumerOptions{Backoff: time.Millisecond}, nil)
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, []int64{1, 2, 3, 4}, fr.committed)
	assert.Equal(t, 1, calls[jobs.JobTaskReminder], "error permanente sin reintentos")
	assert.Equal(t, 3, calls[jobs.JobCleanup])
}

func TestConsumer_AgotaIntentos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fr := &fakeReader{cancel: cancel, msgs: []kafka.Message{message(t, 7, jobs.CheckOverdue())}}
	n := 0
	handle := func(context.Context, dto.JobEnvelope) error {
		n++
		return errors.New("timeout")
	}

	c := NewConsumerWithReader(fr, handle, ConsumerOptions{MaxAttempts: 2, Backoff: time.Millisecond}, nil)
	require.NoError(t, c.Run(ctx))
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{7}, fr.committed)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(domain.ErrNotFound))
	assert.True(t, IsPermanent(domain.NewValidationError("days", "debe ser mayor que cero")))
	assert.True(t, IsPermanent(jobs.ErrUnknownJob))
	assert.True(t, IsPermanent(jobs.ErrBadPayload))
	assert.False(t, IsPermanent(errors.New("smtp: 421")))
}
