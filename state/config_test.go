package state

import "testing"

func TestNew_DefaultsToMemory(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}
}

func TestNew_Sqlite(t *testing.T) {
	s, err := New(&Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.(*SQLiteStore).Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New(&Config{Driver: "dynamodb"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
