package movienight

import (
	"strings"
	"time"
)

// NotifyBefore is the reminder lead time picked when scheduling a movie night.
type NotifyBefore string

const (
	NotifyNone NotifyBefore = "none"
	Notify15m  NotifyBefore = "15m"
	Notify30m  NotifyBefore = "30m"
	Notify1h   NotifyBefore = "1h"
	Notify2h   NotifyBefore = "2h"
	Notify6h   NotifyBefore = "6h"
	Notify12h  NotifyBefore = "12h"
	Notify24h  NotifyBefore = "24h"
)

var notifyBeforeSeconds = map[NotifyBefore]int{
	NotifyNone: 0,
	Notify15m:  15 * 60,
	Notify30m:  30 * 60,
	Notify1h:   60 * 60,
	Notify2h:   2 * 60 * 60,
	Notify6h:   6 * 60 * 60,
	Notify12h:  12 * 60 * 60,
	Notify24h:  24 * 60 * 60,
}

var notifyBeforeLabels = map[NotifyBefore]string{
	NotifyNone: "No reminder",
	Notify15m:  "15 minutes before",
	Notify30m:  "30 minutes before",
	Notify1h:   "1 hour before",
	Notify2h:   "2 hours before",
	Notify6h:   "6 hours before",
	Notify12h:  "12 hours before",
	Notify24h:  "24 hours before",
}

// NotifyBeforeOptions lists the choices in menu order.
func NotifyBeforeOptions() []NotifyBefore {
	return []NotifyBefore{NotifyNone, Notify15m, Notify30m, Notify1h, Notify2h, Notify6h, Notify12h, Notify24h}
}

func (n NotifyBefore) Label() string {
	if label, ok := notifyBeforeLabels[n]; ok {
		return label
	}
	return string(n)
}

// Seconds converts the choice to the lead time sent to the server.
// Unknown values yield 0.
func (n NotifyBefore) Seconds() int {
	return notifyBeforeSeconds[n]
}

// ParseNotifyBefore accepts a key ("2h") or a label ("2 hours before").
func ParseNotifyBefore(value string) (NotifyBefore, bool) {
	value = strings.TrimSpace(value)
	for _, option := range NotifyBeforeOptions() {
		if strings.EqualFold(value, string(option)) || strings.EqualFold(value, option.Label()) {
			return option, true
		}
	}
	return NotifyNone, false
}

// Seconds converts a key or label to seconds, falling back to 0.
func Seconds(value string) int {
	option, ok := ParseNotifyBefore(value)
	if !ok {
		return 0
	}
	return option.Seconds()
}

// ForDuration maps a stored lead time back to its menu choice.
func ForDuration(d time.Duration) (NotifyBefore, bool) {
	secs := int(d / time.Second)
	for _, option := range NotifyBeforeOptions() {
		if option.Seconds() == secs {
			return option, true
		}
	}
	return NotifyNone, false
}
