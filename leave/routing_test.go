package leave_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// APPROVAL CHAIN ROUTING
// =============================================================================

func TestComputeApprovalChain_Table(t *testing.T) {
	tests := []struct {
		name string
		in   leave.RoutingInput
		want []leave.Stage
	}{
		{
			name: "region A employee submission with HR",
			in: leave.RoutingInput{
				Region:              calendar.RegionA,
				Days:                decimal.NewFromInt(3),
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageLineManager, leave.StageHR},
		},
		{
			name: "region B long leave submitted by manager",
			in: leave.RoutingInput{
				ManagerSubmission:   true,
				Region:              calendar.RegionB,
				Days:                decimal.NewFromInt(6),
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageRegional, leave.StageHR},
		},
		{
			name: "region B short leave skips escalation",
			in: leave.RoutingInput{
				Region:              calendar.RegionB,
				Days:                decimal.NewFromInt(4),
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageLineManager, leave.StageHR},
		},
		{
			name: "region B exactly at threshold escalates",
			in: leave.RoutingInput{
				Region:              calendar.RegionB,
				Days:                decimal.NewFromInt(5),
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageLineManager, leave.StageRegional, leave.StageHR},
		},
		{
			name: "region A never escalates regardless of days",
			in: leave.RoutingInput{
				Region:              calendar.RegionA,
				Days:                decimal.NewFromInt(20),
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageLineManager, leave.StageHR},
		},
		{
			name: "no HR representative drops the HR stage",
			in: leave.RoutingInput{
				Region: calendar.RegionA,
				Days:   decimal.NewFromInt(3),
			},
			want: []leave.Stage{leave.StageLineManager},
		},
		{
			name: "half day counts below threshold",
			in: leave.RoutingInput{
				Region:              calendar.RegionB,
				Days:                calendar.HalfDay,
				HasHRRepresentative: true,
			},
			want: []leave.Stage{leave.StageLineManager, leave.StageHR},
		},
		{
			name: "manager submission without HR yields empty chain",
			in: leave.RoutingInput{
				ManagerSubmission: true,
				Region:            calendar.RegionA,
				Days:              decimal.NewFromInt(2),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leave.ComputeApprovalChain(tt.in))
		})
	}
}

func TestComputeApprovalChain_Deterministic(t *testing.T) {
	// GIVEN: One routing input
	// WHEN: Computing the chain repeatedly
	// THEN: Identical output every time

	in := leave.RoutingInput{
		Region:              calendar.RegionB,
		Days:                decimal.NewFromInt(7),
		HasHRRepresentative: true,
	}

	first := leave.ComputeApprovalChain(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, leave.ComputeApprovalChain(in))
	}
}
