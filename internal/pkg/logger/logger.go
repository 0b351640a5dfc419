package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with compliance-specific functionality
type Logger struct {
	*zap.Logger
	serviceName string
}

// ContextKey for request context values
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	CustomerKey  ContextKey = "customer_id"
)

// New creates a new logger instance
func New(serviceName, environment string, debug bool) (*Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Add service metadata
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     environment,
		"pid":     os.Getpid(),
	}

	zapLogger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger:      zapLogger,
		serviceName: serviceName,
	}, nil
}

// Named returns a named sub-logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger:      l.Logger.Named(name),
		serviceName: l.serviceName,
	}
}

// WithContext returns a logger with context values
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := []zap.Field{}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if customerID, ok := ctx.Value(CustomerKey).(string); ok && customerID != "" {
		fields = append(fields, zap.String("customer_id", customerID))
	}

	return &Logger{
		Logger:      l.With(fields...),
		serviceName: l.serviceName,
	}
}

// WithCustomer returns a logger with customer context
func (l *Logger) WithCustomer(customerID string) *Logger {
	return &Logger{
		Logger:      l.With(zap.String("customer_id", customerID)),
		serviceName: l.serviceName,
	}
}

// WithTransaction returns a logger with transaction context
func (l *Logger) WithTransaction(txID, userID string) *Logger {
	return &Logger{
		Logger: l.With(
			zap.String("transaction_id", txID),
			zap.String("user_id", userID),
		),
		serviceName: l.serviceName,
	}
}

// ScreeningCompleted logs the completion of a sanctions screening
func (l *Logger) ScreeningCompleted(subject string, matched bool, matchCount int, durationMs int64) {
	l.Info("screening completed",
		zap.String("subject", subject),
		zap.Bool("matched", matched),
		zap.Int("match_count", matchCount),
		zap.Int64("duration_ms", durationMs),
	)
}

// SanctionsListLoaded logs a successful sanctions list load
func (l *Logger) SanctionsListLoaded(source string, entries int) {
	l.Info("sanctions list loaded",
		zap.String("source", source),
		zap.Int("entries", entries),
	)
}

// AssessmentCompleted logs the completion of a KYC risk assessment
func (l *Logger) AssessmentCompleted(customerID string, riskLevel string, riskScore int, durationMs int64) {
	l.Info("risk assessment completed",
		zap.String("customer_id", customerID),
		zap.String("risk_level", riskLevel),
		zap.Int("risk_score", riskScore),
		zap.Int64("duration_ms", durationMs),
	)
}

// PatternDetected logs a detected transaction pattern
func (l *Logger) PatternDetected(userID, patternType string, severity string) {
	l.Warn("suspicious pattern detected",
		zap.String("user_id", userID),
		zap.String("pattern_type", patternType),
		zap.String("severity", severity),
	)
}

// AlertCreated logs alert creation
func (l *Logger) AlertCreated(alertID, alertType, userID string, severity string) {
	l.Warn("alert created",
		zap.String("alert_id", alertID),
		zap.String("alert_type", alertType),
		zap.String("user_id", userID),
		zap.String("severity", severity),
	)
}

// OnboardingCompleted logs the outcome of a customer onboarding check
func (l *Logger) OnboardingCompleted(customerID string, approved bool, riskLevel string, durationMs int64) {
	l.Info("onboarding check completed",
		zap.String("customer_id", customerID),
		zap.Bool("approved", approved),
		zap.String("risk_level", riskLevel),
		zap.Int64("duration_ms", durationMs),
	)
}

// LatencyWarning logs when a check exceeds expected latency
func (l *Logger) LatencyWarning(checkType string, durationMs, thresholdMs int64) {
	l.Warn("latency threshold exceeded",
		zap.String("check_type", checkType),
		zap.Int64("duration_ms", durationMs),
		zap.Int64("threshold_ms", thresholdMs),
	)
}

// Helper field functions

// ErrorField creates an error field
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

// StringField creates a string field
func StringField(key, value string) zap.Field {
	return zap.String(key, value)
}

// IntField creates an int field
func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}
