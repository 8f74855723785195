package recorder

import (
	"context"
	"time"

	"codeberg.org/mutker/meterdash/internal/meter"
)

// Recorder keeps a local copy of received samples grouped into sessions.
type Recorder interface {
	// OpenSession returns the session new samples should go to. A session
	// with the same name is continued when its last sample is recent;
	// otherwise a new session is started.
	OpenSession(ctx context.Context, name, device string, now time.Time) (Session, error)
	Record(ctx context.Context, sessionID int64, sample meter.Sample) error
	Sessions(ctx context.Context) ([]Session, error)
	FindSession(ctx context.Context, name string) (Session, bool, error)
	Series(ctx context.Context, sessionID int64, sel meter.AxisSelection) ([]meter.ChartPoint, error)
	// Samples returns every recorded sample of a session in time order.
	Samples(ctx context.Context, sessionID int64) ([]meter.Sample, error)
	DeleteSession(ctx context.Context, sessionID int64) error
	Close() error
	IsEnabled() bool
}

// Repository is the storage behind a Recorder.
type Repository interface {
	CreateSession(name, device string, startedAt time.Time) (Session, error)
	Append(rec Record) error
	Sessions() ([]Session, error)
	LatestSession(name string) (Session, bool, error)
	Series(sessionID int64, left, right string) ([]meter.ChartPoint, error)
	Samples(sessionID int64) ([]meter.Sample, error)
	DeleteSession(sessionID int64) error
	Close() error
}

// Session is one named recording.
type Session struct {
	ID        int64
	Name      string
	Device    string
	StartedAt time.Time
	// LastSample is zero when the session holds no samples yet.
	LastSample time.Time
	Samples    int
}

// Record is one sample queued for a session.
type Record struct {
	SessionID int64
	Sample    meter.Sample
}
