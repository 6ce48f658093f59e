package pipeline

// Class is the classifier verdict for one inbound payload.
type Class int

const (
    // ClassCandidate is a bin-level reading eligible for persistence.
    ClassCandidate Class = iota
    // ClassTelemetry is motion/orientation sensor noise to discard.
    ClassTelemetry
)

// The publisher interleaves two physically distinct message shapes on one
// topic; any of these keys marks the motion shape. This is a shape-based
// discriminator, not a schema check.
var telemetryKeys = [...]string{"gyroX", "gyroY", "gyroZ", "accX", "accY", "accZ", "pitch", "roll"}

// Classify decides whether a parsed payload is motion telemetry or a
// candidate record. Total: every JSON object gets a verdict.
func Classify(raw map[string]any) Class {
    for _, k := range telemetryKeys {
        if _, ok := raw[k]; ok {
            return ClassTelemetry
        }
    }
    return ClassCandidate
}
