package nomad

import (
	"sort"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter exposes an hclog.Logger through the Logger interface.
type HCLogAdapter struct {
	logger hclog.Logger
}

// NewHCLogAdapter wraps logger. A nil logger discards everything.
func NewHCLogAdapter(logger hclog.Logger) *HCLogAdapter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &HCLogAdapter{logger: logger}
}

// HCLog returns the wrapped logger.
func (a *HCLogAdapter) HCLog() hclog.Logger {
	return a.logger
}

func (a *HCLogAdapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, flatten(fields)...)
}

func (a *HCLogAdapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, flatten(fields)...)
}

func (a *HCLogAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, flatten(fields)...)
}

func (a *HCLogAdapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, flatten(fields)...)
}

// flatten turns fields into hclog's alternating key/value form with keys in
// sorted order, so log lines are stable.
func flatten(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return args
}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger {
	return NewHCLogAdapter(hclog.NewNullLogger())
}
