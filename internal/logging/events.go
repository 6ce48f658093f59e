package logging

// EventLogger provides structured event logging with fixed schemas so that
// downstream log pipelines can route on event/action pairs.
type EventLogger struct {
	log func(level Level, msg string, fields ...Field)
}

// NewEventLogger creates a new EventLogger backed by the global logging functions.
func NewEventLogger() *EventLogger {
	return &EventLogger{log: log}
}

// Ingest logs message intake events.
// action: receive|parse|classify|normalize
// status: success|dropped|skipped|failed
func (e *EventLogger) Ingest(action, status, ingestID, deviceID, reason string) {
	level := DebugLevel
	if status == "failed" {
		level = WarnLevel
	}
	fields := []Field{
		F("event", "ingest"),
		F("action", action),
		F("status", status),
	}
	if ingestID != "" {
		fields = append(fields, F("ingest_id", ingestID))
	}
	if deviceID != "" {
		fields = append(fields, F("device_id", deviceID))
	}
	if reason != "" {
		fields = append(fields, F("reason", reason))
	}
	e.log(level, "ingest_event", fields...)
}

// Store logs persistence events on the series and CSV paths.
// action: partition_ensure|point_write|csv_append|retention_delete|republish
// status: success|failed
func (e *EventLogger) Store(action, status, target, deviceID, reason string) {
	level := DebugLevel
	if status == "failed" {
		level = ErrorLevel
	}
	fields := []Field{
		F("event", "store"),
		F("action", action),
		F("status", status),
	}
	if target != "" {
		fields = append(fields, F("target", target))
	}
	if deviceID != "" {
		fields = append(fields, F("device_id", deviceID))
	}
	if reason != "" {
		fields = append(fields, F("reason", reason))
	}
	e.log(level, "store_event", fields...)
}

// Alert logs alert state transitions and notification dispatch.
// action: full|cleared|notify
// status: success|failed
func (e *EventLogger) Alert(action, status, deviceID, recipient, reason string) {
	level := InfoLevel
	if status == "failed" {
		level = WarnLevel
	}
	fields := []Field{
		F("event", "alert"),
		F("action", action),
		F("status", status),
		F("device_id", deviceID),
	}
	if recipient != "" {
		fields = append(fields, F("recipient", recipient))
	}
	if reason != "" {
		fields = append(fields, F("reason", reason))
	}
	e.log(level, "alert_event", fields...)
}

// Infra logs infrastructure events.
// action: connect|disconnect|error|subscribe
// component: mqtt|postgres|redis|smtp|http
// status: success|failed
func (e *EventLogger) Infra(action, component, status, details string) {
	level := DebugLevel
	if status == "failed" || action == "error" {
		level = ErrorLevel
	}
	fields := []Field{
		F("event", "infra"),
		F("action", action),
		F("component", component),
		F("status", status),
	}
	if details != "" {
		fields = append(fields, F("details", details))
	}
	e.log(level, "infra_event", fields...)
}
