package entity

// Chunk is a unit of retrieved source text with its distance to the query.
type Chunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
}

// SeedDocument is one corpus entry loaded into the vector store at startup.
type SeedDocument struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// JoinContents concatenates chunk contents separated by blank lines.
func JoinContents(chunks []Chunk) string {
	size := 0
	for _, c := range chunks {
		size += len(c.Content) + 2
	}

	buf := make([]byte, 0, size)
	for i, c := range chunks {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, c.Content...)
	}
	return string(buf)
}
