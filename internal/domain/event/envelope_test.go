package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	ID             string          `json:"id"`
	Note           string          `json:"note"`
	OccurredAtTime time.Time       `json:"occurred_at"`
	TriggerContext *TriggerContext `json:"trigger,omitempty"`
}

func (e *stubEvent) EventName() string              { return "EnvelopeStubEvent" }
func (e *stubEvent) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *stubEvent) AggregateRef() (string, string) { return "Stub", e.ID }
func (e *stubEvent) Trigger() *TriggerContext       { return e.TriggerContext }

func init() {
	Register("EnvelopeStubEvent", func(data json.RawMessage) (DomainEvent, error) {
		var e stubEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}

// ============================================
// Envelope Tests
// ============================================

func TestWrap_CapturesEventIdentity(t *testing.T) {
	trigger := ManualTrigger("alice")
	occurred := time.Now()
	env, err := Wrap(&stubEvent{ID: "stub-1", Note: "hello", OccurredAtTime: occurred, TriggerContext: &trigger})

	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "EnvelopeStubEvent", env.EventName)
	assert.Equal(t, "Stub", env.AggregateType)
	assert.Equal(t, "stub-1", env.AggregateID)
	assert.Equal(t, occurred, env.OccurredAt)
	require.NotNil(t, env.Trigger)
	assert.Equal(t, TriggerSourceManual, env.Trigger.TriggerSource)
	assert.Equal(t, "alice", env.Trigger.TriggerBy)
}

func TestWrap_MissingAggregateID(t *testing.T) {
	env, err := Wrap(&stubEvent{Note: "orphan"})

	require.NoError(t, err)
	assert.Equal(t, UnknownAggregateID, env.AggregateID)
}

func TestWrapAll_PreservesOrder(t *testing.T) {
	envs, err := WrapAll([]DomainEvent{
		&stubEvent{ID: "a"},
		&stubEvent{ID: "b"},
	})

	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "a", envs[0].AggregateID)
	assert.Equal(t, "b", envs[1].AggregateID)
}

// ============================================
// Decode Tests
// ============================================

func TestDecode_RoundTrip(t *testing.T) {
	env, err := Wrap(&stubEvent{ID: "stub-1", Note: "payload survives"})
	require.NoError(t, err)

	decoded, known, err := Decode(env)

	require.NoError(t, err)
	assert.True(t, known)
	stub, ok := decoded.(*stubEvent)
	require.True(t, ok)
	assert.Equal(t, "stub-1", stub.ID)
	assert.Equal(t, "payload survives", stub.Note)
}

func TestDecode_UnknownEventName(t *testing.T) {
	decoded, known, err := Decode(Envelope{EventName: "NobodyRegisteredThis", Payload: json.RawMessage(`{}`)})

	require.NoError(t, err)
	assert.False(t, known)
	assert.Nil(t, decoded)
}

func TestDecode_CorruptPayload(t *testing.T) {
	_, known, err := Decode(Envelope{EventName: "EnvelopeStubEvent", Payload: json.RawMessage(`{not json`)})

	assert.True(t, known)
	assert.Error(t, err)
}

// ============================================
// Trigger Context Tests
// ============================================

func TestTriggerConstructors(t *testing.T) {
	manual := ManualTrigger("alice")
	assert.Equal(t, TriggerSourceManual, manual.TriggerSource)
	assert.Equal(t, "alice", manual.TriggerBy)
	assert.NotEmpty(t, manual.CorrelationID)

	sched := SchedulerTrigger("sweep")
	assert.Equal(t, TriggerSourceScheduler, sched.TriggerSource)
	assert.Equal(t, "sweep", sched.TriggerBy)

	obs := ObserverTrigger("watcher")
	assert.Equal(t, TriggerSourceObserver, obs.TriggerSource)
	assert.NotEqual(t, manual.CorrelationID, sched.CorrelationID)
}

func TestDerivedTrigger_KeepsCorrelationID(t *testing.T) {
	parent := ManualTrigger("alice")

	derived := DerivedTrigger(parent, "inventory-saga")

	assert.Equal(t, TriggerSourceEvent, derived.TriggerSource)
	assert.Equal(t, parent.CorrelationID, derived.CorrelationID)
	assert.Equal(t, "inventory-saga", derived.TriggerBy)
}
