package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

type recordingSource struct {
	published map[string][][]byte
	err       error
}

func newRecordingSource() *recordingSource {
	return &recordingSource{published: make(map[string][][]byte)}
}

func (s *recordingSource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	return nil, nil
}

func (s *recordingSource) Ack(queue string, jobID string) error { return nil }

func (s *recordingSource) Publish(queue string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.published[queue] = append(s.published[queue], data)
	return nil
}

func testConfig() Config {
	return Config{Name: "plan_index", DeadLetter: "plan_index_dead"}
}

func TestJobQueue_PublishJob(t *testing.T) {
	source := newRecordingSource()
	q := NewJobQueue(source, testConfig())

	err := q.PublishJob(job.NewIndex("p-1", &plan.Plan{ObjectID: "p-1"}))
	require.NoError(t, err)

	require.Len(t, source.published["plan_index"], 1)
	decoded, err := job.Decode(source.published["plan_index"][0])
	require.NoError(t, err)
	assert.Equal(t, "p-1", decoded.ID)
}

func TestJobQueue_PublishFoldsTransportError(t *testing.T) {
	source := newRecordingSource()
	source.err = errors.New("connection refused")
	q := NewJobQueue(source, testConfig())

	err := q.PublishJob(job.NewDelete("p-1"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestJobQueue_PublishDeadWrapsEnvelope(t *testing.T) {
	source := newRecordingSource()
	q := NewJobQueue(source, testConfig())

	j := job.NewDelete("p-1")
	j.Attempt = 6
	require.NoError(t, q.PublishDead(j, errors.New("index write failed")))

	require.Len(t, source.published["plan_index_dead"], 1)
	var envelope DeadLetter
	require.NoError(t, json.Unmarshal(source.published["plan_index_dead"][0], &envelope))
	assert.Equal(t, "index write failed", envelope.Error)

	inner, err := job.Decode(envelope.Job)
	require.NoError(t, err)
	assert.Equal(t, 6, inner.Attempt)
}

func TestJobQueue_PublishDeadRawKeepsPayloadVerbatim(t *testing.T) {
	source := newRecordingSource()
	q := NewJobQueue(source, testConfig())

	raw := []byte(`{"type":"reindex","id":"p-1"}`)
	require.NoError(t, q.PublishDeadRaw(raw, errors.New("unknown job type")))

	var envelope DeadLetter
	require.NoError(t, json.Unmarshal(source.published["plan_index_dead"][0], &envelope))
	assert.JSONEq(t, string(raw), string(envelope.Job))
}

func TestJobQueue_PublishDeadRawNonJSONPayload(t *testing.T) {
	source := newRecordingSource()
	q := NewJobQueue(source, testConfig())

	require.NoError(t, q.PublishDeadRaw([]byte(`{not json`), errors.New("unmarshal job failed")))

	// The envelope itself must still be valid JSON with the payload preserved
	var envelope DeadLetter
	require.NoError(t, json.Unmarshal(source.published["plan_index_dead"][0], &envelope))
	var embedded string
	require.NoError(t, json.Unmarshal(envelope.Job, &embedded))
	assert.Equal(t, `{not json`, embedded)
}
