package uvcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// sentinelErr is a stand-in failure used only to exercise the error
// branch of RecordAIOSubmit.
type sentinelErr struct{}

func (*sentinelErr) Error() string { return "sentinel error" }

func TestRecordAIOSubmit(t *testing.T) {
	m := NewMetrics()
	m.RecordAIOSubmit(4, nil)
	m.RecordAIOSubmit(2, &sentinelErr{})

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.AIOSubmits, "expected 1 successful submit")
	assert.EqualValues(t, 1, snap.AIOSubmitErrors, "expected 1 failed submit")
	assert.EqualValues(t, 4, snap.AIOBuffersSubmitted, "failed submit should not count buffers")
}

func TestRecordAIOComplete(t *testing.T) {
	m := NewMetrics()
	m.RecordAIOComplete(8, 5_000)
	m.RecordAIOComplete(-5, 10_000)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.AIOCompletions)
	assert.EqualValues(t, 1, snap.AIOCompletionErrors)
	assert.EqualValues(t, 8, snap.AIOBytesCompleted)
}

func TestRecordTimerFire(t *testing.T) {
	m := NewMetrics()
	m.RecordTimerFire(0)
	m.RecordTimerFire(2)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.TimerFires)
	assert.EqualValues(t, 2, snap.TimerCascades)
}

func TestMetricsObserverWiresIntoMetrics(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveAIOSubmit(3, nil)
	obs.ObserveAIOComplete(12, 1_000)
	obs.ObserveTimerFire(1)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.AIOSubmits)
	assert.EqualValues(t, 1, snap.AIOCompletions)
	assert.EqualValues(t, 1, snap.TimerFires)
}
