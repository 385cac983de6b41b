package id

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedPrefixes(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"card", gen.NewCardID().String(), CardPrefix},
		{"notification", gen.NewNotificationID().String(), NotificationPrefix},
		{"progress", gen.NewProgressID().String(), ProgressPrefix},
		{"item", gen.NewItemID().String(), ItemPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.id, tt.prefix+"_") {
				t.Errorf("ID should start with '%s_', got: %s", tt.prefix, tt.id)
			}
			if !IsValid(tt.id) {
				t.Errorf("prefixed ID should parse: %s", tt.id)
			}
		})
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	gen := NewGenerator()
	fixed := time.Now()
	gen.now = func() time.Time { return fixed }

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = gen.GenerateString()
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("IDs minted in the same millisecond should sort in creation order")
	}
}

func TestConcurrentGenerationNeverRepeats(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 250

	var mu sync.Mutex
	seen := make(map[CardID]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := gen.NewCardID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewGenerator().NewProgressID()

	ts, err := Timestamp(id.String())
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v should be after %v", ts, before)
	}
}

func TestParseInvalid(t *testing.T) {
	if IsValid("card_not-a-ulid") {
		t.Error("garbage should not parse")
	}
}
