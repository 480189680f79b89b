package sync

import (
	"time"

	"github.com/sdejongh/drivebridge/pkg/models"
)

// eventLog numbers events, records their lines on the outcome and forwards
// them to the sink. It is owned by a single run goroutine.
type eventLog struct {
	seq     int
	outcome *models.SyncOutcome
	sink    EventSink
}

func newEventLog(outcome *models.SyncOutcome, sink EventSink) *eventLog {
	return &eventLog{outcome: outcome, sink: sink}
}

func (l *eventLog) emit(ev models.LogEvent) {
	l.seq++
	ev.Seq = l.seq
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	l.outcome.Log = append(l.outcome.Log, ev.Message)
	if l.sink != nil {
		l.sink(ev)
	}
}

func (l *eventLog) add(kind models.EventKind, rel, msg string) {
	l.emit(models.LogEvent{Kind: kind, RelativePath: rel, Message: msg})
}

// done emits the last event of an entry
func (l *eventLog) done(kind models.EventKind, rel, msg string) {
	l.emit(models.LogEvent{Kind: kind, RelativePath: rel, Message: msg, EntryDone: true})
}
