package utils

import (
	"time"

	"github.com/segmentio/ksuid"
)

// GenKSortedID returns a k-sortable unique ID with an optional prefix, like run_2EEKM...
func GenKSortedID(prefix string) string {
	return prefix + ksuid.New().String()
}

// Clock abstracts wall time and sleeping so polling and scheduling loops can be
// driven by a fake in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

func NewClock() Clock {
	return realClock{}
}
