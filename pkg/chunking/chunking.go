// Package chunking splits repository file content into retrieval units
// per the repository analyst's chunking rules: one file-level chunk per
// file, class/function sub-chunks for structured languages, one chunk
// per SQL statement, one chunk per markdown header section, and a
// fixed-size line-window fallback.
package chunking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultWindowLines = 500

// Chunk is one retrieval unit, carrying enough structure to rebuild a
// parent/child tree and survive re-ingestion via its content hash.
type Chunk struct {
	ID             string
	File           string
	StartLine      int
	EndLine        int
	ParentChunkID  string
	ChildChunkIDs  []string
	Language       string
	Content        string
	Metadata       map[string]any
	ContentHash    string
}

// structuredExtensions maps file extensions to the language tag used for
// class/function sub-chunking.
var structuredExtensions = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
}

// ChunkFile dispatches to the rule set appropriate for file's extension.
func ChunkFile(file string, content []byte) []Chunk {
	text := string(content)
	fileChunk := newFileChunk(file, text)

	ext := strings.ToLower(filepath.Ext(file))
	var children []Chunk
	switch {
	case ext == ".sql":
		children = chunkSQL(file, text, fileChunk.ID)
	case ext == ".md" || ext == ".markdown":
		children = chunkMarkdown(file, text, fileChunk.ID)
	default:
		if lang, ok := structuredExtensions[ext]; ok {
			children = chunkStructured(file, text, lang, fileChunk.ID)
		} else {
			children = chunkWindows(file, text, fileChunk.ID)
		}
	}

	fileChunk.ChildChunkIDs = make([]string, len(children))
	for i, c := range children {
		fileChunk.ChildChunkIDs[i] = c.ID
	}
	return append([]Chunk{fileChunk}, children...)
}

func newFileChunk(file, content string) Chunk {
	return Chunk{
		ID:          hashID(file, "file", content),
		File:        file,
		StartLine:   1,
		EndLine:     strings.Count(content, "\n") + 1,
		Language:    "",
		Content:     content,
		Metadata:    map[string]any{"kind": "file"},
		ContentHash: hashContent(content),
	}
}

func hashID(file, kind, content string) string {
	return fmt.Sprintf("%s:%s:%s", kind, file, hashContent(content)[:12])
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// chunkWindows is the fallback: fixed-size line windows, explicit parent
// = file chunk.
func chunkWindows(file, content, parentID string) []Chunk {
	lines := strings.Split(content, "\n")
	var chunks []Chunk
	for start := 0; start < len(lines); start += defaultWindowLines {
		end := start + defaultWindowLines
		if end > len(lines) {
			end = len(lines)
		}
		windowContent := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, Chunk{
			ID:            hashID(file, fmt.Sprintf("window-%d", start), windowContent),
			File:          file,
			StartLine:     start + 1,
			EndLine:       end,
			ParentChunkID: parentID,
			Content:       windowContent,
			Metadata:      map[string]any{"kind": "window"},
			ContentHash:   hashContent(windowContent),
		})
	}
	return chunks
}

// chunkSQL splits on top-level statements ending at ';'.
func chunkSQL(file, content, parentID string) []Chunk {
	var chunks []Chunk
	statements := strings.Split(content, ";")
	line := 1
	for _, stmt := range statements {
		trimmed := strings.TrimSpace(stmt)
		linesInStmt := strings.Count(stmt, "\n") + 1
		if trimmed == "" {
			line += linesInStmt
			continue
		}
		chunks = append(chunks, Chunk{
			ID:            hashID(file, "sql", trimmed),
			File:          file,
			StartLine:     line,
			EndLine:       line + linesInStmt - 1,
			ParentChunkID: parentID,
			Language:      "sql",
			Content:       trimmed + ";",
			Metadata:      map[string]any{"kind": "statement"},
			ContentHash:   hashContent(trimmed),
		})
		line += linesInStmt
	}
	return chunks
}

var markdownHeaderRe = regexp.MustCompile(`(?m)^#{1,6}\s+.*$`)

// chunkMarkdown splits on header sections.
func chunkMarkdown(file, content, parentID string) []Chunk {
	lines := strings.Split(content, "\n")
	var headerLines []int
	for i, l := range lines {
		if markdownHeaderRe.MatchString(l) {
			headerLines = append(headerLines, i)
		}
	}
	if len(headerLines) == 0 {
		return chunkWindows(file, content, parentID)
	}

	var chunks []Chunk
	for i, start := range headerLines {
		end := len(lines)
		if i+1 < len(headerLines) {
			end = headerLines[i+1]
		}
		section := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, Chunk{
			ID:            hashID(file, fmt.Sprintf("section-%d", start), section),
			File:          file,
			StartLine:     start + 1,
			EndLine:       end,
			ParentChunkID: parentID,
			Language:      "markdown",
			Content:       section,
			Metadata:      map[string]any{"kind": "section", "heading": strings.TrimSpace(lines[start])},
			ContentHash:   hashContent(section),
		})
	}
	return chunks
}

// classFuncRe recognizes class/function declarations across the
// structured languages this chunker supports; it is intentionally
// permissive rather than a full parser.
var classFuncRe = regexp.MustCompile(`(?m)^\s*(?:async\s+)?(?:def|func|class|function)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// chunkStructured produces class/function sub-chunks in addition to the
// file-level chunk, for languages the analyst recognizes by extension.
func chunkStructured(file, content, lang, parentID string) []Chunk {
	lines := strings.Split(content, "\n")
	matches := classFuncRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return chunkWindows(file, content, parentID)
	}

	offsets := lineOffsets(content)
	var chunks []Chunk
	for i, m := range matches {
		startByte := m[0]
		startLine := lineForOffset(offsets, startByte)
		endLine := len(lines)
		if i+1 < len(matches) {
			endLine = lineForOffset(offsets, matches[i+1][0]) - 1
		}
		name := content[m[2]:m[3]]
		body := strings.Join(lines[startLine-1:endLine], "\n")
		isAsync := strings.Contains(content[max(0, startByte-6):startByte], "async")
		decorators := extractDecorators(lines, startLine-1)

		chunks = append(chunks, Chunk{
			ID:            hashID(file, fmt.Sprintf("symbol-%s", name), body),
			File:          file,
			StartLine:     startLine,
			EndLine:       endLine,
			ParentChunkID: parentID,
			Language:      lang,
			Content:       body,
			Metadata: map[string]any{
				"kind":          "symbol",
				"declared_name": name,
				"decorators":    decorators,
				"is_async":      isAsync,
			},
			ContentHash: hashContent(body),
		})
	}
	return chunks
}

func extractDecorators(lines []string, declLine int) []string {
	var decorators []string
	for i := declLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "@") {
			decorators = append([]string{trimmed}, decorators...)
			continue
		}
		break
	}
	return decorators
}

func lineOffsets(content string) []int {
	offsets := []int{0}
	for i, r := range content {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lineForOffset(offsets []int, byteOffset int) int {
	for i := len(offsets) - 1; i >= 0; i-- {
		if offsets[i] <= byteOffset {
			return i + 1
		}
	}
	return 1
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
