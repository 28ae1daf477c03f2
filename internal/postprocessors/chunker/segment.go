package chunker

import (
	"crypto/md5" //nolint:gosec // content digest, not a security boundary
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// Segment splits text into sentence-bounded chunks of at most chunkSize
// characters, carrying trailing sentences of each closed chunk into the
// next one while they fit within overlap characters.
//
// Chunks are never split mid-sentence, so a single sentence longer than
// chunkSize becomes its own chunk. The carried sentence count is capped at
// half of the closed chunk's sentences, which guarantees forward progress
// for any overlap value. Indices start at 0 within this call.
func Segment(text string, pageNumber *int, chunkSize, overlap int) []domain.Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks  []domain.Chunk
		current []string
		curLen  int
		carried int
	)

	emit := func() {
		chunks = append(chunks, newChunk(current, carried, len(chunks), pageNumber))
	}

	for _, sentence := range sentences {
		sentLen := utf8.RuneCountInString(sentence)

		if len(current) > 0 && curLen+1+sentLen > chunkSize {
			if len(current) > carried {
				emit()
				current = overlapTail(current, overlap)
				carried = len(current)
				curLen = joinedLen(current)
			}

			// Only carried sentences remain here. Shed them from the front
			// until the next sentence fits so no chunk exceeds chunkSize
			// unless a single sentence does.
			for len(current) > 0 && curLen+1+sentLen > chunkSize {
				current = current[1:]
				carried--
				curLen = joinedLen(current)
			}
		}

		if len(current) > 0 {
			curLen++
		}
		current = append(current, sentence)
		curLen += sentLen
	}

	if len(current) > carried {
		emit()
	}

	return chunks
}

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
// Sentences are trimmed and empty results are discarded.
func SplitSentences(text string) []string {
	var sentences []string

	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(text) {
			continue
		}
		nr, _ := utf8.DecodeRuneInString(text[next:])
		if !unicode.IsSpace(nr) {
			continue
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			sentences = append(sentences, s)
		}
		start = next
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// overlapTail walks sentences from the end while their accumulated length
// stays within overlap. At most half of the sentences are carried.
func overlapTail(sentences []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}

	maxCarry := len(sentences) / 2
	total, n := 0, 0
	for i := len(sentences) - 1; i >= 0 && n < maxCarry; i-- {
		l := utf8.RuneCountInString(sentences[i])
		if total+l > overlap {
			break
		}
		total += l
		n++
	}

	if n == 0 {
		return nil
	}
	tail := make([]string, n)
	copy(tail, sentences[len(sentences)-n:])
	return tail
}

// joinedLen is the rune length of sentences joined by single spaces.
func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += utf8.RuneCountInString(s)
	}
	return n
}

func newChunk(sentences []string, carried, index int, pageNumber *int) domain.Chunk {
	content := strings.Join(sentences, " ")

	var page *int
	if pageNumber != nil {
		page = domain.PageRef(*pageNumber)
	}

	return domain.Chunk{
		Content:          content,
		Index:            index,
		PageNumber:       page,
		CharCount:        utf8.RuneCountInString(content),
		WordCount:        len(strings.Fields(content)),
		SentenceCount:    len(sentences),
		OverlapSentences: carried,
		ContentHash:      ContentHash(content),
		Metadata:         make(map[string]any),
	}
}

// ContentHash returns the hex MD5 digest of content.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}
