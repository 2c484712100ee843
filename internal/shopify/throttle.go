package shopify

import (
	"time"
)

const (
	DefaultEstimatedQueryCost = 100

	defaultCurrentlyAvailable = 1000
	defaultRestoreRate        = 50
	defaultMaximumAvailable   = 1000

	throttleSafetyMargin = 1.1
)

// ThrottleState is the cost bucket snapshot reported with the last successful response.
type ThrottleState struct {
	RequestedCost      float64 `json:"requested_cost"`
	ActualCost         float64 `json:"actual_cost"`
	CurrentlyAvailable float64 `json:"currently_available"`
	RestoreRate        float64 `json:"restore_rate"`
	MaximumAvailable   float64 `json:"maximum_available"`
}

type costExtension struct {
	RequestedQueryCost *float64        `json:"requestedQueryCost"`
	ActualQueryCost    *float64        `json:"actualQueryCost"`
	ThrottleStatus     *throttleStatus `json:"throttleStatus"`
}

type throttleStatus struct {
	MaximumAvailable   *float64 `json:"maximumAvailable"`
	CurrentlyAvailable *float64 `json:"currentlyAvailable"`
	RestoreRate        *float64 `json:"restoreRate"`
}

func newThrottleState(cost *costExtension) ThrottleState {
	s := ThrottleState{
		CurrentlyAvailable: defaultCurrentlyAvailable,
		RestoreRate:        defaultRestoreRate,
		MaximumAvailable:   defaultMaximumAvailable,
	}

	if cost.RequestedQueryCost != nil {
		s.RequestedCost = *cost.RequestedQueryCost
	}
	if cost.ActualQueryCost != nil {
		s.ActualCost = *cost.ActualQueryCost
	}

	if ts := cost.ThrottleStatus; ts != nil {
		if ts.MaximumAvailable != nil {
			s.MaximumAvailable = *ts.MaximumAvailable
		}
		if ts.CurrentlyAvailable != nil {
			s.CurrentlyAvailable = *ts.CurrentlyAvailable
		}
		if ts.RestoreRate != nil && *ts.RestoreRate > 0 {
			s.RestoreRate = *ts.RestoreRate
		}
	}

	if s.MaximumAvailable < 0 {
		s.MaximumAvailable = 0
	}
	if s.CurrentlyAvailable < 0 {
		s.CurrentlyAvailable = 0
	}
	if s.CurrentlyAvailable > s.MaximumAvailable {
		s.CurrentlyAvailable = s.MaximumAvailable
	}

	return s
}

func (s ThrottleState) ShouldWait(nextQueryCost float64) bool {
	return s.CurrentlyAvailable < nextQueryCost
}

// WaitTime is how long the bucket needs to refill to nextQueryCost, plus 10%.
func (s ThrottleState) WaitTime(nextQueryCost float64) time.Duration {
	if !s.ShouldWait(nextQueryCost) || s.RestoreRate <= 0 {
		return 0
	}

	seconds := (nextQueryCost - s.CurrentlyAvailable) / s.RestoreRate * throttleSafetyMargin

	return time.Duration(seconds * float64(time.Second))
}
