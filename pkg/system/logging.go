// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Debug switches from the JSON
// production encoder to the human readable development encoder.
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Disable automatic stacktraces for non-fatal levels to avoid noisy traces in WARN/INFO logs
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return logger.Sugar(), nil
}

// StudentFields returns key/value pairs identifying a student for
// SugaredLogger.With or Infow calls. The recipient is omitted when empty.
func StudentFields(id, recipient string) []interface{} {
	if recipient == "" {
		return []interface{}{"student", id}
	}
	return []interface{}{"student", id, "recipient", recipient}
}
