package knol

import (
	"testing"

	"github.com/conorfennell/recall/internal/domain"
)

func TestNormalize(t *testing.T) {
	c := domain.Content{
		Front:     "  What is HTMX? \r\n",
		Back:      "A library for AJAX.",
		BackImage: " Diagram.PNG ",
	}
	expected := "what is htmx?\na library for ajax.\n\nDiagram.PNG"
	normalized := Normalize(c)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		c := domain.Content{Front: "Q", Back: "A"}
		// Hash for "q\na\n\n"
		expectedHash := "bdd47ebfa213575854e0a550a800d3e7cc490ab6962e1c613bd2ca3187aa8a3a"
		hash := Hash(c)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("image references are part of the identity", func(t *testing.T) {
		c := domain.Content{Front: "Q", Back: "A", FrontImage: "q.png"}
		// Hash for "q\na\nq.png\n"
		expectedHash := "9117bfd609776693954be49bb6ab0fe4421ee2f208736f52b0960555a551bac6"
		if got := Hash(c); got != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, got)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		c1 := domain.Content{Front: "Test"}
		c2 := domain.Content{Front: "Test"}
		if Hash(c1) != Hash(c2) {
			t.Error("Expected hashes for identical cards to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		c1 := domain.Content{
			Front: "  what is go? ",
			Back:  "A programming language.",
		}
		c2 := domain.Content{
			Front: "What Is Go?",
			Back:  "A programming language.",
		}
		if Hash(c1) != Hash(c2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		c1 := domain.Content{Front: "Card 1"}
		c2 := domain.Content{Front: "Card 2"}
		if Hash(c1) == Hash(c2) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}
