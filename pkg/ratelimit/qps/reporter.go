package qps

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
	"github.com/vnykmshr/qpsflow/pkg/common/validation"
)

// scheduleParser accepts optional seconds and descriptors such as "@every 10s".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func parseSchedule(spec string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty("reporter", "spec", spec); err != nil {
		return nil, err
	}
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, gferrors.NewValidationError("reporter", "spec", spec, err.Error()).
			WithHint(`use a cron expression or a descriptor such as "@every 30s"`)
	}
	return sched, nil
}

// Reporter periodically logs a limiter's throughput.
type Reporter struct {
	limiter Limiter
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewReporter creates a Reporter that logs l's state on the given cron spec.
// Call Start to begin reporting.
func NewReporter(l Limiter, spec string, logger *zap.Logger) (*Reporter, error) {
	if l == nil {
		return nil, gferrors.NewValidationError("reporter", "limiter", nil, "cannot be nil")
	}
	sched, err := parseSchedule(spec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reporter{
		limiter: l,
		logger:  logger,
		cron:    cron.New(cron.WithParser(scheduleParser)),
	}
	r.cron.Schedule(sched, cron.FuncJob(r.Report))
	return r, nil
}

// Start begins reporting in the background.
func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop halts reporting. The returned context is done once a running report
// has finished.
func (r *Reporter) Stop() context.Context {
	return r.cron.Stop()
}

// Report logs the limiter state once.
func (r *Reporter) Report() {
	fields := []zap.Field{
		zap.String("name", r.limiter.Name()),
		zap.Bool("running", r.limiter.Running()),
		zap.Int("tokens", r.limiter.Tokens()),
		zap.Int("in_flight", r.limiter.InFlight()),
		zap.Int64("completed", r.limiter.Completed()),
		zap.Float64("rate", r.limiter.Rate()),
	}

	q, err := r.limiter.RealQPS()
	switch {
	case err == nil:
		fields = append(fields, zap.Float64("real_qps", q))
	case errors.Is(err, ErrUndefinedQPS):
	default:
		fields = append(fields, zap.Error(err))
	}

	r.logger.Info("qps limiter throughput", fields...)
}
