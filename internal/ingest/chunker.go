package ingest

// Chunker splits extracted document text into fixed-size windows with a
// trailing overlap so sentence fragments at a boundary also appear at the
// start of the next chunk.
type Chunker struct {
	size    int
	overlap int
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk windows over runes, not bytes, so multibyte characters never get
// split mid-sequence. The window advances by size-overlap each step.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}
	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
