// Package channel classifies selected events into analysis categories from
// object multiplicities.
package channel

import (
	"fmt"
	"strings"
)

// Channel is the analysis category of one event.
type Channel int

const (
	Unknown Channel = iota
	Resolved
	Boosted
	Both
)

var names = [...]string{
	Unknown:  "UNKNOWN",
	Resolved: "RESOLVED",
	Boosted:  "BOOSTED",
	Both:     "BOTH",
}

// All lists every channel in enumeration order.
var All = []Channel{Unknown, Resolved, Boosted, Both}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(names) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return names[c]
}

// CounterName is the monitoring cutflow stage incremented for events
// classified into c.
func (c Channel) CounterName() string {
	return "Channel " + c.String()
}

// ParseChannel converts a channel name (case-insensitive) back to a Channel.
func ParseChannel(s string) (Channel, error) {
	for i, n := range names {
		if strings.EqualFold(s, n) {
			return Channel(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown channel %q", s)
}

// Multiplicity carries the object-count facts used for classification.
type Multiplicity struct {
	// DoubleTaggedFatJets counts large-radius jets matched to both b-quarks.
	DoubleTaggedFatJets int
	// TaggedJets counts light jets with a bottom true-flavour label.
	TaggedJets int
}

// Classify assigns a channel: BOTH when a double-tagged large-radius jet and
// two tagged light jets are present, BOOSTED with only the former, RESOLVED
// with only the latter, UNKNOWN otherwise.
func Classify(m Multiplicity) Channel {
	return FromFlags(m.DoubleTaggedFatJets >= 1, m.TaggedJets >= 2)
}

// FromFlags classifies from the two multiplicity conditions directly.
func FromFlags(boosted, resolved bool) Channel {
	switch {
	case boosted && resolved:
		return Both
	case boosted:
		return Boosted
	case resolved:
		return Resolved
	default:
		return Unknown
	}
}
