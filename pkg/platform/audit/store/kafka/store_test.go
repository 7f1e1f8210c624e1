package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "secureupdate/pkg/platform/audit"
)

type recordingProducer struct {
	keys   []string
	values [][]byte
	err    error
}

func (r *recordingProducer) Produce(_ context.Context, key, value []byte) error {
	if r.err != nil {
		return r.err
	}
	r.keys = append(r.keys, string(key))
	r.values = append(r.values, value)
	return nil
}

func TestAppendKeysByModel(t *testing.T) {
	p := &recordingProducer{}
	s := New(p)

	require.NoError(t, s.Append(context.Background(), audit.Event{
		ID:      "evt-1",
		Action:  string(audit.EventUpdateAdded),
		ModelID: "MODEL_A",
		Caller:  "creator",
	}))
	require.NoError(t, s.Append(context.Background(), audit.Event{
		ID:     "evt-2",
		Action: string(audit.EventContractInstantiated),
	}))

	assert.Equal(t, []string{"MODEL_A", "contract_instantiated"}, p.keys)

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(p.values[0], &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, "creator", decoded.Caller)
}

func TestAppendWrapsProducerError(t *testing.T) {
	cause := errors.New("leader not available")
	s := New(&recordingProducer{err: cause})

	err := s.Append(context.Background(), audit.Event{Action: "update_added"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
