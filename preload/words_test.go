package preload

import "testing"

func TestDocuments(t *testing.T) {
	documents := Documents()
	if len(documents) != len(Categories)*wordsPerCategory {
		t.Fatalf("expected %d documents, got %d", len(Categories)*wordsPerCategory, len(documents))
	}
	if documents[0].Text != "dog" || documents[0].Metadata["category"] != "animals" {
		t.Errorf("unexpected first document %+v", documents[0])
	}
	last := documents[len(documents)-1]
	if last.Text != "encryption" || last.Metadata["category"] != "tech" {
		t.Errorf("unexpected last document %+v", last)
	}

	seen := make(map[string]bool)
	for _, document := range documents {
		if seen[document.ID] {
			t.Errorf("duplicate id %s", document.ID)
		}
		seen[document.ID] = true
	}
}
