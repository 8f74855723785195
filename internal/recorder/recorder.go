package recorder

import (
	"context"
	"regexp"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
)

// DefaultSessionName is used when a session is opened without a name.
const DefaultSessionName = "My measurement"

const sessionSuffixLayout = "2006-01-02 15:04"

var sessionSuffix = regexp.MustCompile(` \d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

type service struct {
	repo Repository
	cfg  Config
	log  logger.Logger
}

// No-op implementation
type noopRecorder struct{}

func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Recording disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create recorder repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Recorder service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
		log:  log,
	}, nil
}

func (s *service) OpenSession(ctx context.Context, name, device string, now time.Time) (Session, error) {
	if err := checkContext(ctx); err != nil {
		return Session{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}

	last, ok, err := s.repo.LatestSession(name)
	if err != nil {
		return Session{}, err
	}
	if ok {
		if last.LastSample.IsZero() || now.Sub(last.LastSample) <= sessionIdle {
			s.log.Debug().Int64("session_id", last.ID).Str("name", name).Msg("Continuing recording session")
			return last, nil
		}
		name = NextSessionName(name, now)
	}

	return s.repo.CreateSession(name, device, now)
}

func (s *service) Record(ctx context.Context, sessionID int64, sample meter.Sample) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	return s.repo.Append(Record{SessionID: sessionID, Sample: sample})
}

func (s *service) Sessions(ctx context.Context) ([]Session, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	return s.repo.Sessions()
}

func (s *service) FindSession(ctx context.Context, name string) (Session, bool, error) {
	if err := checkContext(ctx); err != nil {
		return Session{}, false, err
	}

	return s.repo.LatestSession(name)
}

func (s *service) Series(ctx context.Context, sessionID int64, sel meter.AxisSelection) ([]meter.ChartPoint, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	return s.repo.Series(sessionID, sel.LeftMetric, sel.RightMetric)
}

func (s *service) Samples(ctx context.Context, sessionID int64) ([]meter.Sample, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	return s.repo.Samples(sessionID)
}

func (s *service) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	return s.repo.DeleteSession(sessionID)
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	return nil
}

func (*service) IsEnabled() bool {
	return true
}

// NextSessionName replaces any date suffix of name with the current one.
func NextSessionName(name string, now time.Time) string {
	return sessionSuffix.ReplaceAllString(name, "") + " " + now.Format(sessionSuffixLayout)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.New().Wrap(ErrOperationTimeout, ctx.Err())
	default:
		return nil
	}
}

// No-op implementation
func (*noopRecorder) OpenSession(_ context.Context, name, device string, now time.Time) (Session, error) {
	return Session{Name: name, Device: device, StartedAt: now}, nil
}

func (*noopRecorder) Record(_ context.Context, _ int64, _ meter.Sample) error {
	return nil
}

func (*noopRecorder) Sessions(_ context.Context) ([]Session, error) {
	return nil, nil
}

func (*noopRecorder) FindSession(_ context.Context, _ string) (Session, bool, error) {
	return Session{}, false, nil
}

func (*noopRecorder) Series(_ context.Context, _ int64, _ meter.AxisSelection) ([]meter.ChartPoint, error) {
	return nil, nil
}

func (*noopRecorder) Samples(_ context.Context, _ int64) ([]meter.Sample, error) {
	return nil, nil
}

func (*noopRecorder) DeleteSession(_ context.Context, sessionID int64) error {
	return errors.New().WithData(ErrSessionNotFound, sessionID)
}

func (*noopRecorder) Close() error {
	return nil
}

func (*noopRecorder) IsEnabled() bool {
	return false
}
