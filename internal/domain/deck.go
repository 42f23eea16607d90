package domain

import "time"

// MaxDeckNameLength is the longest deck name accepted, in characters.
const MaxDeckNameLength = 49

// Counts are the cached aggregate counters of a deck.
type Counts struct {
	Total int
	New   int
	Due   int
}

// Deck groups cards. Its Counts are a cache that the stats package
// recomputes from the deck's cards.
type Deck struct {
	ID      int64
	Name    string
	Created time.Time
	Counts
}
