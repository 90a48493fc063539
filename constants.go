package gochan

import (
	"time"

	"github.com/EklabDev/gochan/internal/constants"
)

// Re-exported tuning constants, for callers that want them without
// reaching into internal/constants directly.
const (
	DefaultChannelCapacity = constants.DefaultChannelCapacity
	DefaultSlotSize        = constants.DefaultSlotSize
	MinSlotSize            = constants.MinSlotSize
	HeaderSize             = constants.HeaderSize
)

// WaitFloor is the bounded wait granularity a blocked Send or Receive falls
// back to when it has to re-poll header state instead of being woken
// directly.
const WaitFloor time.Duration = constants.DefaultWaitTimeout

// TerminateGracePeriod is how long Pool.Terminate's caller should plan for
// in-flight tasks to finish before considering a Kill.
const TerminateGracePeriod = constants.TerminateGracePeriod
