package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(ScopeOrders, want)
	got, err := ParseCursor(ScopeOrders, encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if got == nil || !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseCursorRejectsForeignScope(t *testing.T) {
	encoded := EncodeCursor(ScopeProducts, Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()})

	if _, err := ParseCursor(ScopeOrders, encoded); err == nil {
		t.Fatal("expected a catalog cursor to fail against the orders listing")
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor(ScopeProducts, "  ")
	if err != nil {
		t.Fatalf("blank cursor must parse as nil: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor, got %+v", cursor)
	}
}

func TestParseCursorGarbage(t *testing.T) {
	if _, err := ParseCursor(ScopeProducts, "!!not-base64!!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{15, 15},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := LimitWithBuffer(15); got != 16 {
		t.Fatalf("LimitWithBuffer(15) = %d, want 16", got)
	}
}
