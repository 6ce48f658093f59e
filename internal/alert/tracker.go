package alert

import (
    "fmt"
    "strconv"
    "sync"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
)

// State is the per-device alert status. Cleared behaves like Normal for
// future comparisons and exists only so logs distinguish "never full" from
// "was full, then emptied".
type State int

const (
    StateNormal State = iota
    StateFull
    StateCleared
)

func (s State) String() string {
    switch s {
    case StateFull:
        return "full"
    case StateCleared:
        return "cleared"
    default:
        return "normal"
    }
}

// Notifier delivers one outbound notification. Implementations handle their
// own per-recipient fan-out and error isolation.
type Notifier interface {
    Notify(subject, body string) error
}

// Tracker holds per-device alert state in process memory and emits
// notifications on threshold crossings. State is evaluated only after a
// confirmed series write. Entries are never evicted; devices that go silent
// leak one map entry each.
type Tracker struct {
    mu       sync.Mutex
    states   map[string]State
    full     float64
    clear    float64
    notifier Notifier
    events   *logging.EventLogger
}

func NewTracker(cfg collectorcfg.AlertsConfig, n Notifier) *Tracker {
    return &Tracker{
        states:   make(map[string]State),
        full:     cfg.FullThreshold,
        clear:    cfg.ClearThreshold,
        notifier: n,
        events:   logging.NewEventLogger(),
    }
}

// States returns a snapshot of current per-device states.
func (t *Tracker) States() map[string]State {
    t.mu.Lock()
    defer t.mu.Unlock()
    out := make(map[string]State, len(t.states))
    for k, v := range t.states {
        out[k] = v
    }
    return out
}

// Evaluate applies one fill-level reading to the device's state machine.
// Transitions:
//
//	not Full -> Full     when level >= full threshold
//	Full     -> Cleared  when level <  clear threshold
//
// Levels inside the hysteresis band cause no transition and no notification.
// The transition is recorded before the notification is dispatched, so a
// failed send never rolls back state.
func (t *Tracker) Evaluate(deviceID string, level float64) {
    t.mu.Lock()
    cur := t.states[deviceID]
    var next State
    switch {
    case level >= t.full && cur != StateFull:
        next = StateFull
    case level < t.clear && cur == StateFull:
        next = StateCleared
    default:
        t.mu.Unlock()
        return
    }
    t.states[deviceID] = next
    t.mu.Unlock()

    kind := next.String()
    metrics.AlertsSent.WithLabelValues(kind).Inc()
    t.events.Alert(kind, "success", deviceID, "", "")

    if t.notifier == nil {
        return
    }
    lvl := strconv.FormatFloat(level, 'f', -1, 64)
    var subject, body string
    if next == StateFull {
        subject = fmt.Sprintf("Bin %s Alert: High Fill Level!", deviceID)
        body = fmt.Sprintf("The bin with ID %s has reached a level of %s%%. Please schedule waste collection.", deviceID, lvl)
    } else {
        subject = fmt.Sprintf("Bin %s Alert: Bin Cleared!", deviceID)
        body = fmt.Sprintf("The bin with ID %s has been cleared and is now at %s%%.", deviceID, lvl)
    }
    if err := t.notifier.Notify(subject, body); err != nil {
        t.events.Alert("notify", "failed", deviceID, "", err.Error())
    }
}
