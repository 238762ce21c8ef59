package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from CloneStatus
		to   CloneStatus
		want bool
	}{
		{name: "pending to fetching", from: StatusPending, to: StatusFetching, want: true},
		{name: "fetching to generating", from: StatusFetching, to: StatusGenerating, want: true},
		{name: "generating to complete", from: StatusGenerating, to: StatusComplete, want: true},
		{name: "any stage to failed", from: StatusFetching, to: StatusFailed, want: true},
		{name: "no skipping stages", from: StatusPending, to: StatusComplete, want: false},
		{name: "no retry in place", from: StatusFailed, to: StatusFetching, want: false},
		{name: "complete is terminal", from: StatusComplete, to: StatusFailed, want: false},
		{name: "no moving backwards", from: StatusGenerating, to: StatusFetching, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
