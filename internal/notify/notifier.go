package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier surfaces success/error feedback to the user. Implementations are
// fire-and-forget: feature managers never branch on the outcome of a
// notification.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Success logs a success notification
func (n *LogNotifier) Success(message string) {
	n.logger.Info("notification", zap.String("level", "success"), zap.String("message", message))
}

// Error logs an error notification
func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notification", zap.String("level", "error"), zap.String("message", message))
}

// Recorder captures notifications for inspection in tests
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

// NewRecorder creates a recording notifier
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Success records a success notification
func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

// Error records an error notification
func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Successes returns recorded success messages
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns recorded error messages
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
