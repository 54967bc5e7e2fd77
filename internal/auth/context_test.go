package auth

import (
	"context"
	"testing"
)

func TestWithAuthRoundTrip(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{MemberID: 7})

	ac, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context to be present")
	}
	if ac.MemberID != 7 {
		t.Errorf("member id = %d, want 7", ac.MemberID)
	}
	if got := MemberID(ctx); got != 7 {
		t.Errorf("MemberID = %d, want 7", got)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no auth context on a bare context")
	}
	if got := MemberID(context.Background()); got != 0 {
		t.Errorf("MemberID = %d, want 0 for unauthenticated context", got)
	}
}
