package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/jmottier/notihub/core/metrics"
)

type stubSink struct {
	records []coremetrics.DispatchRecord
	err     error
}

func (s *stubSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	s.records = append(s.records, rec)
	return s.err
}

func TestMultiSink_FanOut(t *testing.T) {
	a := &stubSink{}
	b := &stubSink{}
	m := NewMultiSink(a, b)

	rec := coremetrics.DispatchRecord{Channel: "push", OK: true, Duration: time.Millisecond}
	require.NoError(t, m.RecordDispatch(rec))
	require.Len(t, a.records, 1)
	require.Len(t, b.records, 1)
	assert.Equal(t, "push", a.records[0].Channel)
}

func TestMultiSink_FirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &stubSink{err: boom}
	b := &stubSink{}
	m := NewMultiSink(a, b)

	err := m.RecordDispatch(coremetrics.DispatchRecord{Channel: "push"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, b.records)
}
