package loader

import "strings"

// ChunkSeparator splits a file into chunks. It is matched literally: "\n \n" or "\n\n\n" are
// not normalized, and leading or trailing separators produce empty chunks.
const ChunkSeparator = "\n\n"

// Split returns the chunks of text in file order. k separators yield k+1 chunks;
// the chunk index is its record ID.
func Split(text string) []string {
	return strings.Split(text, ChunkSeparator)
}
