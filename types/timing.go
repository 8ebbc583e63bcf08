package types

import (
	"slices"
	"strings"
	"time"
)

type Timing struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTiming() Timing {
	return Timing{Start: time.Now()}
}

// Complete sets the end time and returns the timing
func (t Timing) Complete() Timing {
	t.End = time.Now()
	return t
}

func (t *Timing) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

type TimingMap map[string]Timing

// Keys returns the timing labels in start order
func (m TimingMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := m[a].Start.Compare(m[b].Start); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return keys
}

func (m TimingMap) String() string {
	var sb strings.Builder
	sb.WriteString("Timing:\n")
	// get max label length
	maxLabelLen := 0
	for k := range m {
		if len(k) > maxLabelLen {
			maxLabelLen = len(k)
		}
	}

	for _, k := range m.Keys() {
		v := m[k]
		sb.WriteString(k)
		sb.WriteString(":")
		// pad label to max length
		for i := len(k); i < maxLabelLen; i++ {
			sb.WriteString(" ")
		}
		sb.WriteString(" ")
		sb.WriteString(v.Duration().String())
		sb.WriteString("\n")
	}
	return sb.String()
}
