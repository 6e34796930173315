package bot

import "testing"

func TestMatchKnowledge(t *testing.T) {
	entries := []KnowledgeEntry{
		{Question: "What are your opening hours?", Answer: "We are open 9am to 5pm on weekdays."},
		{Question: "Do you ship internationally?", Answer: "Yes, we ship to most countries."},
	}

	answer, ok := MatchKnowledge(entries, "hey, what are your opening hours??")
	if !ok {
		t.Fatal("expected a match")
	}
	if answer != "We are open 9am to 5pm on weekdays." {
		t.Fatalf("unexpected answer %q", answer)
	}

	if _, ok := MatchKnowledge(entries, "tell me a joke"); ok {
		t.Fatal("expected no match for an unrelated message")
	}

	if _, ok := MatchKnowledge(entries, ""); ok {
		t.Fatal("expected no match for an empty message")
	}

	if _, ok := MatchKnowledge(nil, "what are your opening hours"); ok {
		t.Fatal("expected no match without entries")
	}
}

func TestMatchKnowledgePicksBestEntry(t *testing.T) {
	entries := []KnowledgeEntry{
		{Question: "Can I return an item?", Answer: "Returns are accepted within 30 days."},
		{Question: "Can I return an item bought on sale?", Answer: "Sale items are final."},
	}

	answer, ok := MatchKnowledge(entries, "can i return an item i bought?")
	if !ok {
		t.Fatal("expected a match")
	}
	if answer != "Returns are accepted within 30 days." {
		t.Fatalf("unexpected answer %q", answer)
	}
}
