package auth

import (
	"context"
	"testing"
)

func TestWithAuthRoundTrip(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{SessionID: 7, Token: "tok"})

	ac, ok := FromContext(ctx)
	if !ok {
		t.Fatal("auth context not found")
	}
	if ac.SessionID != 7 || ac.Token != "tok" {
		t.Errorf("auth context = %+v", ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("found auth context on a bare context")
	}
}

func TestSessionIDDefaultsToZero(t *testing.T) {
	if got := SessionID(context.Background()); got != 0 {
		t.Errorf("SessionID = %d, want 0", got)
	}
	ctx := WithAuth(context.Background(), AuthContext{SessionID: 42})
	if got := SessionID(ctx); got != 42 {
		t.Errorf("SessionID = %d, want 42", got)
	}
}
