package scheduler

import (
	"fmt"

	"github.com/aatumaykin/crosspost/internal/logger"
)

// cronLogger adapts *logger.Logger to the cron.Logger interface.
type cronLogger struct {
	log *logger.Logger
}

func newCronLogger(log *logger.Logger) cronLogger {
	return cronLogger{log: log}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvToFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, err, kvToFields(keysAndValues)...)
}

func kvToFields(keysAndValues []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
