package widget

import (
	"path/filepath"
	"testing"
)

func TestFileStorageVisitorIDStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.json")
	store := NewFileStorageAt(path)

	first, err := store.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if first == "" {
		t.Fatal("expected a generated visitor id")
	}

	second, err := store.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if second != first {
		t.Errorf("expected stable visitor id, got %q then %q", first, second)
	}

	// A fresh adapter over the same file sees the same identity.
	reopened := NewFileStorageAt(path)
	third, err := reopened.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID after reopen failed: %v", err)
	}
	if third != first {
		t.Errorf("expected persisted visitor id %q, got %q", first, third)
	}
}

func TestFileStorageConversationRoundTrip(t *testing.T) {
	store := NewFileStorageAt(filepath.Join(t.TempDir(), "widget.json"))

	if _, err := store.VisitorID(); err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if err := store.SaveConversation("conv-42"); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := store.Conversation()
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if got != "conv-42" {
		t.Errorf("expected conv-42, got %q", got)
	}

	visitorID, err := store.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if visitorID == "" {
		t.Error("saving a conversation must not clear the visitor id")
	}
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()

	first, err := store.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	second, err := store.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if first == "" || first != second {
		t.Errorf("expected stable visitor id, got %q then %q", first, second)
	}

	if err := store.SaveConversation("conv-1"); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	got, err := store.Conversation()
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if got != "conv-1" {
		t.Errorf("expected conv-1, got %q", got)
	}
}
