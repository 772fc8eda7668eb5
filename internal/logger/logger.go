package logger

// Logger is the logging contract used across the pipeline. Components log
// under a fixed component name with optional structured fields.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// Nop discards all log output. Used by tests and as a safe default.
type Nop struct{}

func (Nop) Debug(component, message string, fields map[string]interface{})   {}
func (Nop) Info(component, message string, fields map[string]interface{})    {}
func (Nop) Warning(component, message string, fields map[string]interface{}) {}
func (Nop) Error(component string, err error, fields map[string]interface{}) {}
