package core

import "go.uber.org/zap"

// Outcome is the logged result of a best-effort write. Callers may inspect it
// or drop it; the failure has already been reported either way.
type Outcome struct {
	Op  string
	Err error
}

func (o Outcome) OK() bool { return o.Err == nil }

func recordOutcome(logger *zap.Logger, op string, err error, fields ...zap.Field) Outcome {
	if err != nil {
		logger.Error(op+" failed", append(fields, zap.Error(err))...)
	} else {
		logger.Info(op, fields...)
	}
	return Outcome{Op: op, Err: err}
}
