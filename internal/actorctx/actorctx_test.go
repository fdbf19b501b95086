package actorctx

import (
	"context"
	"testing"
)

func TestActorIDRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), 42)
	id, ok := ActorID(ctx)
	if !ok {
		t.Fatal("expected actor to be set")
	}
	if id != 42 {
		t.Fatalf("ActorID = %d, want 42", id)
	}
}

func TestActorIDEmpty(t *testing.T) {
	if _, ok := ActorID(context.Background()); ok {
		t.Fatal("expected no actor on empty context")
	}
}

func TestActorIDNilContext(t *testing.T) {
	if _, ok := ActorID(nil); ok {
		t.Fatal("expected no actor for nil context")
	}
}

func TestWithActorNilContext(t *testing.T) {
	ctx := WithActor(nil, 7)
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if id, ok := ActorID(ctx); !ok || id != 7 {
		t.Fatalf("ActorID = %d, %v, want 7, true", id, ok)
	}
}

func TestSuppressHidesActor(t *testing.T) {
	ctx := WithActor(context.Background(), 42)
	suppressed := Suppress(ctx)

	if _, ok := ActorID(suppressed); ok {
		t.Fatal("expected suppressed scope to hide the actor")
	}
	if ref := ActorRef(suppressed); ref != nil {
		t.Fatalf("ActorRef = %v, want nil", *ref)
	}
}

func TestSuppressIsScoped(t *testing.T) {
	ctx := WithActor(context.Background(), 42)
	_ = Suppress(ctx)

	// the outer context must be untouched after the suppressed scope ends
	if id, ok := ActorID(ctx); !ok || id != 42 {
		t.Fatalf("outer context lost actor: %d, %v", id, ok)
	}
}

func TestActorRef(t *testing.T) {
	ref := ActorRef(WithActor(context.Background(), 9))
	if ref == nil || *ref != 9 {
		t.Fatalf("ActorRef = %v, want 9", ref)
	}
	if ActorRef(context.Background()) != nil {
		t.Fatal("expected nil ref without actor")
	}
}
