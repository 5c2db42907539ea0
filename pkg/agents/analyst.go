package agents

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/chunking"
	"github.com/agentswarm/core/pkg/collaborators"
	"github.com/agentswarm/core/pkg/task"
)

// QualityInsight mirrors the original's CodeQualityInsight shape.
type QualityInsight struct {
	Type            string
	Severity        string
	Title           string
	Description     string
	Recommendations []string
	Confidence      float64
	ImpactScore     float64
}

// NewRepositoryAnalystAgent builds the analyst that fetches a bounded
// repository file list, chunks it (§4.6), and reports structure,
// architectural patterns, quality insights, and recommendations.
// Grounded on EnhancedRepositoryAnalystAgent's _perform_repository_analysis
// pipeline (_analyze_structure / _detect_patterns / _analyze_quality /
// _generate_recommendations).
func NewRepositoryAnalystAgent(id string, limits agent.ResourceLimits, repo collaborators.RepositoryFetcher) *agent.BaseAgent {
	return agent.NewBaseAgent(id, "repository_analyst", "Repository Analyst", limits,
		[]string{"handle_repository_analysis", "handle_code_analysis"},
		func(ctx context.Context, t *task.Task, mem *agent.Memory) (map[string]any, error) {
			return analyzeRepository(ctx, t, repo)
		})
}

const maxAnalyzedFiles = 200

func analyzeRepository(ctx context.Context, t *task.Task, repo collaborators.RepositoryFetcher) (map[string]any, error) {
	ref, _ := t.Context["ref"].(string)
	if ref == "" {
		ref = "main"
	}

	entries, err := repo.Tree(ctx, "", ref)
	if err != nil {
		return nil, err
	}

	var chunks []chunking.Chunk
	filePaths := make([]string, 0, len(entries))
	for i, e := range entries {
		if e.IsDir || i >= maxAnalyzedFiles {
			continue
		}
		filePaths = append(filePaths, e.Path)

		content, err := repo.File(ctx, e.Path)
		if err != nil {
			continue // a single unreadable file does not fail the whole analysis
		}
		text, err := chunking.ExtractText(e.Path, content)
		if err != nil {
			continue
		}
		chunks = append(chunks, chunking.ChunkFile(e.Path, []byte(text))...)
	}

	structure := analyzeStructure(chunks)
	patterns := detectPatterns(filePaths)
	insights := analyzeQuality(chunks)
	recommendations := generateRecommendations(filePaths, insights)

	return map[string]any{
		"structure":        structure,
		"patterns":         patterns,
		"quality_insights": insights,
		"recommendations":  recommendations,
		"chunks_analyzed":  len(chunks),
	}, nil
}

// extLanguages maps a file extension to a display language name. File
// chunks carry no language tag of their own (only structured sub-chunks
// do), so structure analysis derives it from the path instead.
var extLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".cpp":  "cpp",
	".cs":   "csharp",
	".php":  "php",
}

func languageFor(file string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(file))]; ok {
		return lang
	}
	return "other"
}

func analyzeStructure(chunks []chunking.Chunk) map[string]any {
	languages := map[string]int{}
	fileTypes := map[string]int{}
	dirSet := map[string]bool{}
	totalFiles, totalLines := 0, 0

	for _, c := range chunks {
		if c.ParentChunkID != "" {
			continue // only file-level chunks count toward structure totals
		}
		totalFiles++
		totalLines += c.EndLine - c.StartLine + 1
		languages[languageFor(c.File)]++
		fileTypes[filepath.Ext(c.File)]++
		dirSet[filepath.Dir(c.File)] = true
	}

	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	primary := "unknown"
	best := 0
	for lang, count := range languages {
		if count > best {
			best = count
			primary = lang
		}
	}

	return map[string]any{
		"total_files":      totalFiles,
		"total_lines":      totalLines,
		"languages":        languages,
		"file_types":       fileTypes,
		"directories":      dirs,
		"primary_language": primary,
	}
}

// detectPatterns flags common architectural patterns from file-path
// heuristics (microservices, layered architecture, MVC, repository
// pattern), matching the original's threshold-based heuristics exactly.
func detectPatterns(filePaths []string) map[string]bool {
	patterns := map[string]bool{
		"microservices":        false,
		"layered_architecture": false,
		"mvc":                  false,
		"repository_pattern":   false,
	}

	serviceDirs := countContaining(filePaths, "service")
	if serviceDirs >= 3 {
		patterns["microservices"] = true
	}

	layers := []string{"presentation", "business", "data", "layer"}
	layerMatches := 0
	for _, l := range layers {
		if countContaining(filePaths, l) > 0 {
			layerMatches++
		}
	}
	if layerMatches >= 2 {
		patterns["layered_architecture"] = true
	}

	mvcComponents := []string{"model", "view", "controller"}
	mvcMatches := 0
	for _, c := range mvcComponents {
		if countContaining(filePaths, c) > 0 {
			mvcMatches++
		}
	}
	if mvcMatches >= 2 {
		patterns["mvc"] = true
	}

	repoFiles := countContaining(filePaths, "repository") + countContaining(filePaths, "repo")
	if repoFiles >= 2 {
		patterns["repository_pattern"] = true
	}

	return patterns
}

func countContaining(paths []string, needle string) int {
	n := 0
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p), needle) {
			n++
		}
	}
	return n
}

var (
	ifRe        = regexp.MustCompile(`\bif\b`)
	loopRe      = regexp.MustCompile(`\bfor\b|\bwhile\b`)
	tryCatchRe = regexp.MustCompile(`\btry\b|\bcatch\b`)
)

// estimateComplexity mirrors _estimate_complexity's weighted heuristic.
func estimateComplexity(content string) float64 {
	lines := strings.Split(content, "\n")
	score := float64(len(ifRe.FindAllString(content, -1)))*0.1 +
		float64(len(loopRe.FindAllString(content, -1)))*0.15 +
		float64(len(tryCatchRe.FindAllString(content, -1)))*0.1 +
		float64(len(lines))*0.001
	if score > 1 {
		return 1
	}
	return score
}

// hasDocumentation mirrors _has_documentation's block/line-comment ratio.
func hasDocumentation(content string) bool {
	if strings.Contains(content, `"""`) || strings.Contains(content, "'''") || strings.Contains(content, "/**") {
		return true
	}
	lines := strings.Split(content, "\n")
	var commentLines, total int
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		total++
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") {
			commentLines++
		}
	}
	if total == 0 {
		return false
	}
	return float64(commentLines)/float64(total) > 0.1
}

func analyzeQuality(chunks []chunking.Chunk) []QualityInsight {
	var insights []QualityInsight

	highComplexity := 0
	documented, totalFuncs := 0, 0
	for _, c := range chunks {
		if c.ParentChunkID == "" {
			continue // function/method-level chunks only
		}
		if estimateComplexity(c.Content) > 0.7 {
			highComplexity++
		}
		totalFuncs++
		if hasDocumentation(c.Content) {
			documented++
		}
	}

	if highComplexity > 0 {
		impact := float64(highComplexity) / 10
		if impact > 1 {
			impact = 1
		}
		insights = append(insights, QualityInsight{
			Type: "complexity", Severity: "warning",
			Title:           "High Complexity Functions Detected",
			Description:     "Found " + strconv.Itoa(highComplexity) + " functions with high complexity",
			Recommendations: []string{"Refactor complex functions", "Add unit tests", "Extract helper methods"},
			Confidence:      0.8,
			ImpactScore:     impact,
		})
	}

	if totalFuncs > 0 {
		ratio := float64(documented) / float64(totalFuncs)
		if ratio < 0.6 {
			insights = append(insights, QualityInsight{
				Type: "documentation", Severity: "warning",
				Title:           "Low Documentation Coverage",
				Description:     "Fewer than 60% of functions are documented",
				Recommendations: []string{"Add docstrings", "Include inline comments", "Create README files"},
				Confidence:      0.9,
				ImpactScore:     1 - ratio,
			})
		}
	}

	return insights
}

func generateRecommendations(filePaths []string, insights []QualityInsight) map[string][]string {
	recommendations := map[string][]string{
		"prioritized": {},
		"refactoring": {"Review code organization and structure"},
		"optimization": {"Consider performance optimizations"},
	}

	critical, warning := 0, 0
	for _, i := range insights {
		switch i.Severity {
		case "critical":
			critical++
		case "warning":
			warning++
		}
	}
	if critical > 0 {
		recommendations["prioritized"] = append(recommendations["prioritized"], "Address "+strconv.Itoa(critical)+" critical issues")
	}
	if warning > 0 {
		recommendations["prioritized"] = append(recommendations["prioritized"], "Resolve "+strconv.Itoa(warning)+" warning issues")
	}
	if countContaining(filePaths, "test") == 0 {
		recommendations["prioritized"] = append(recommendations["prioritized"], "Add comprehensive test suite")
	}

	return recommendations
}
