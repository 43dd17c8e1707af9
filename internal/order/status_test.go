package order

import (
	"regexp"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusConfirmed, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{Status("refunded"), StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	if Status("refunded").Valid() || !StatusShipped.Valid() {
		t.Fatal("unexpected Valid result")
	}
}

func TestNewOrderNumber(t *testing.T) {
	at := time.UnixMilli(1714550400123)
	pattern := regexp.MustCompile(`^ORDER-1714550400123-[0-9A-Z]{7}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		n := NewOrderNumber(at)
		if !pattern.MatchString(n) {
			t.Fatalf("unexpected order number %q", n)
		}
		if seen[n] {
			t.Fatalf("duplicate order number %q", n)
		}
		seen[n] = true
	}
}
