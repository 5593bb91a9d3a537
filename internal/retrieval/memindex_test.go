package retrieval

import (
	"context"
	"testing"

	embmock "github.com/wiredbrain/axiom/pkg/provider/embeddings/mock"
)

func indexedMem(t *testing.T, emb *embmock.Provider) *MemIndex {
	t.Helper()
	idx := NewMemIndex(emb, DefaultMinSimilarity)
	records := []Record{
		&Equipment{Name: "NVIDIA Jetson Orin Nano", Category: "compute", Quantity: 2, Available: 2},
		&Equipment{Name: "Intel RealSense D435i", Category: "sensor", Quantity: 1, Available: 0},
		&Project{Title: "Line Follower", Difficulty: "beginner"},
	}
	if err := idx.Index(context.Background(), records); err != nil {
		t.Fatalf("Index: %v", err)
	}
	return idx
}

func TestMemIndexRanksByCosineSimilarity(t *testing.T) {
	emb := &embmock.Provider{
		Dims: 3,
		ByText: map[string][]float32{
			(&Equipment{Name: "NVIDIA Jetson Orin Nano", Category: "compute", Quantity: 2, Available: 2}).Document(): {1, 0, 0},
			(&Equipment{Name: "Intel RealSense D435i", Category: "sensor", Quantity: 1, Available: 0}).Document():    {0.7, 0.7, 0},
			(&Project{Title: "Line Follower", Difficulty: "beginner"}).Document():                                    {0, 0, 1},
			"jetson board":                                                                                           {1, 0.1, 0},
		},
	}
	idx := indexedMem(t, emb)

	got, err := idx.Retrieve(context.Background(), CategoryEquipment, "jetson board", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Record.Label() != "NVIDIA Jetson Orin Nano" {
		t.Errorf("top result = %q, want the Jetson", got[0].Record.Label())
	}
	if got[0].Similarity <= got[1].Similarity {
		t.Errorf("results not sorted: %f <= %f", got[0].Similarity, got[1].Similarity)
	}
}

func TestMemIndexCategoryIsolation(t *testing.T) {
	emb := &embmock.Provider{
		Dims: 3,
		ByText: map[string][]float32{
			(&Project{Title: "Line Follower", Difficulty: "beginner"}).Document(): {0, 0, 1},
			"a fun robot project": {0, 0, 1},
		},
	}
	idx := indexedMem(t, emb)

	got, err := idx.Retrieve(context.Background(), CategoryProjects, "a fun robot project", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Record.Kind() != CategoryProjects {
		t.Errorf("Kind = %q, want %q", got[0].Record.Kind(), CategoryProjects)
	}
}

func TestMemIndexSimilarityFloor(t *testing.T) {
	// The default mock embedding is a zero vector, which has similarity 0
	// against everything and must fall below the floor.
	emb := &embmock.Provider{Dims: 3}
	idx := indexedMem(t, emb)

	got, err := idx.Retrieve(context.Background(), CategoryEquipment, "completely unrelated", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0 below similarity floor", len(got))
	}
}

func TestMemIndexHonorsK(t *testing.T) {
	emb := &embmock.Provider{
		Dims: 3,
		ByText: map[string][]float32{
			(&Equipment{Name: "NVIDIA Jetson Orin Nano", Category: "compute", Quantity: 2, Available: 2}).Document(): {1, 0, 0},
			(&Equipment{Name: "Intel RealSense D435i", Category: "sensor", Quantity: 1, Available: 0}).Document():    {0.9, 0.1, 0},
			"hardware": {1, 0, 0},
		},
	}
	idx := indexedMem(t, emb)

	got, err := idx.Retrieve(context.Background(), CategoryEquipment, "hardware", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}
