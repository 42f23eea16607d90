// Package parser reads cards from markdown files.
//
// A card starts at a line beginning with "Q:" and ends at the next "Q:" or
// at a "---" line. "A:" starts the back of the card. "QI:" and "AI:" name an
// image for the front and back. Front and back may span several lines.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
)

type field int

const (
	seeking field = iota
	readingFront
	readingBack
	readingFrontImage
	readingBackImage
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"QI:", readingFrontImage},
	{"AI:", readingBackImage},
	{"Q:", readingFront},
	{"A:", readingBack},
}

const separator = "---"

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Content, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Blocks without a
// front are dropped; blocks without a back are returned so callers can
// report them.
func Parse(r io.Reader) ([]domain.Content, error) {
	scanner := bufio.NewScanner(r)
	var (
		cards   []domain.Content
		current domain.Content
		block   []string
		state   = seeking
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingFrontImage:
			current.FrontImage = content
		case readingBackImage:
			current.BackImage = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.Content{}
		state = seeking
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == separator {
			finishCard()
			continue
		}

		next, rest, ok := matchPrefix(line)
		if !ok {
			// Image references are a single line.
			if state == readingFront || state == readingBack {
				block = append(block, line)
			}
			continue
		}

		if next == readingFront && state != seeking {
			finishCard()
		} else {
			flushBlock()
		}
		state = next
		block = append(block, strings.TrimPrefix(rest, " "))
	}

	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func matchPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.field, line[len(p.prefix):], true
		}
	}
	return seeking, "", false
}
