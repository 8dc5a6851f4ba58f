package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from CauseStatus
		to   CauseStatus
		want bool
	}{
		{name: "draft to pending verification", from: CauseStatusDraft, to: CauseStatusPendingVerification, want: true},
		{name: "draft cannot activate directly", from: CauseStatusDraft, to: CauseStatusActive, want: false},
		{name: "pending to active on approval", from: CauseStatusPendingVerification, to: CauseStatusActive, want: true},
		{name: "pending to cancelled on rejection", from: CauseStatusPendingVerification, to: CauseStatusCancelled, want: true},
		{name: "active to paused", from: CauseStatusActive, to: CauseStatusPaused, want: true},
		{name: "active to completed", from: CauseStatusActive, to: CauseStatusCompleted, want: true},
		{name: "active to suspended", from: CauseStatusActive, to: CauseStatusSuspended, want: true},
		{name: "paused resumes to active", from: CauseStatusPaused, to: CauseStatusActive, want: true},
		{name: "paused to completed", from: CauseStatusPaused, to: CauseStatusCompleted, want: true},
		{name: "completed is terminal", from: CauseStatusCompleted, to: CauseStatusActive, want: false},
		{name: "cancelled is terminal", from: CauseStatusCancelled, to: CauseStatusActive, want: false},
		{name: "suspended is terminal", from: CauseStatusSuspended, to: CauseStatusActive, want: false},
		{name: "no self transition", from: CauseStatusActive, to: CauseStatusActive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %t, want %t", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCanTransitionAdministratively(t *testing.T) {
	tests := []struct {
		name string
		from CauseStatus
		to   CauseStatus
		want bool
	}{
		{name: "active to paused", from: CauseStatusActive, to: CauseStatusPaused, want: true},
		{name: "active to completed", from: CauseStatusActive, to: CauseStatusCompleted, want: true},
		{name: "active to suspended", from: CauseStatusActive, to: CauseStatusSuspended, want: true},
		{name: "paused resumes to active", from: CauseStatusPaused, to: CauseStatusActive, want: true},
		{name: "paused to completed", from: CauseStatusPaused, to: CauseStatusCompleted, want: true},
		{name: "pending approval is not administrative", from: CauseStatusPendingVerification, to: CauseStatusActive, want: false},
		{name: "pending rejection is not administrative", from: CauseStatusPendingVerification, to: CauseStatusCancelled, want: false},
		{name: "draft submission is not administrative", from: CauseStatusDraft, to: CauseStatusPendingVerification, want: false},
		{name: "completed is terminal", from: CauseStatusCompleted, to: CauseStatusActive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionAdministratively(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransitionAdministratively(%s, %s) = %t, want %t", tt.from, tt.to, got, tt.want)
			}
			// Everything administrative must also exist in the full table.
			if tt.want && !CanTransition(tt.from, tt.to) {
				t.Fatalf("administrative transition %s -> %s missing from the full table", tt.from, tt.to)
			}
		})
	}
}

func TestGoalReached(t *testing.T) {
	tests := []struct {
		name   string
		target int64
		raised int64
		want   bool
	}{
		{name: "below target", target: 100000, raised: 99999, want: false},
		{name: "exactly at target", target: 100000, raised: 100000, want: true},
		{name: "over target", target: 100000, raised: 103000, want: true},
		{name: "zero target never reaches", target: 0, raised: 50000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cause{TargetAmount: tt.target, RaisedAmount: tt.raised}
			if got := c.GoalReached(); got != tt.want {
				t.Fatalf("GoalReached() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestGatewayEventResourceFailureReason(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  string
	}{
		{name: "nil attributes", attrs: nil, want: ""},
		{name: "message field", attrs: map[string]any{"message": "card declined"}, want: "card declined"},
		{name: "failure_reason field", attrs: map[string]any{"failure_reason": "insufficient funds"}, want: "insufficient funds"},
		{name: "message wins over failure_reason", attrs: map[string]any{"message": "first", "failure_reason": "second"}, want: "first"},
		{name: "non-string message ignored", attrs: map[string]any{"message": 42}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := GatewayEventResource{Attributes: tt.attrs}
			if got := r.FailureReason(); got != tt.want {
				t.Fatalf("FailureReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
