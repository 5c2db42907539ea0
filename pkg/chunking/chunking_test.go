package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFileGoProducesFileAndSymbolChunks(t *testing.T) {
	src := `package demo

func Hello() string {
	return "hi"
}

func World() string {
	return "earth"
}
`
	chunks := ChunkFile("demo.go", []byte(src))
	require.GreaterOrEqual(t, len(chunks), 3)
	assert.Equal(t, "", chunks[0].ParentChunkID)
	require.Len(t, chunks[0].ChildChunkIDs, len(chunks)-1)
	for i, c := range chunks[1:] {
		assert.Equal(t, chunks[0].ID, c.ParentChunkID)
		assert.Equal(t, "go", c.Language)
		assert.Equal(t, c.ID, chunks[0].ChildChunkIDs[i])
	}
}

func TestChunkSQLSplitsOnStatements(t *testing.T) {
	src := "CREATE TABLE t (id int);\nINSERT INTO t VALUES (1);\n"
	chunks := ChunkFile("seed.sql", []byte(src))
	// file chunk + 2 statement chunks
	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[1].Content, "CREATE TABLE")
	assert.Contains(t, chunks[2].Content, "INSERT INTO")
}

func TestChunkMarkdownSplitsOnHeaders(t *testing.T) {
	src := "# Title\nintro\n## Section A\nbody a\n## Section B\nbody b\n"
	chunks := ChunkFile("doc.md", []byte(src))
	require.Len(t, chunks, 4) // file + 3 headers
	assert.Equal(t, "# Title", chunks[1].Metadata["heading"])
}

func TestChunkFallbackWindowsForUnstructuredContent(t *testing.T) {
	lines := make([]string, 1200)
	for i := range lines {
		lines[i] = "line of plain text"
	}
	src := ""
	for _, l := range lines {
		src += l + "\n"
	}
	chunks := ChunkFile("notes.txt", []byte(src))
	// file chunk + 3 windows of 500 lines (1200 lines -> 500/500/200)
	require.Len(t, chunks, 4)
	assert.Equal(t, 1, chunks[1].StartLine)
	assert.Equal(t, 500, chunks[1].EndLine)
}

func TestStableContentHash(t *testing.T) {
	c1 := ChunkFile("plain.txt", []byte("hello"))
	c2 := ChunkFile("plain.txt", []byte("hello"))
	assert.Equal(t, c1[0].ContentHash, c2[0].ContentHash)
}
