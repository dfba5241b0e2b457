// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package contextmgr

import "regexp"

// Language-agnostic regex families for symbol extraction, grounded on the
// teacher's rag chunker/search heuristics (v2/rag/chunk.go, v2/rag/search.go)
// generalized across source languages instead of one parser per language.
var (
	functionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`),                 // go
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`), // js/ts
		regexp.MustCompile(`(?m)^\s*def\s+(\w+)\s*\(`),                                   // python
		regexp.MustCompile(`(?m)^\s*(?:public|private|protected|static|\s)*\w[\w<>\[\]]*\s+(\w+)\s*\([^;{]*\)\s*\{`), // java/c#-ish
	}

	typePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*type\s+(\w+)\s+(?:struct|interface)\b`), // go
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+(\w+)`),           // js/ts/python/java
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+(\w+)`),      // ts/java
	}

	importPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*import\s+.*?["']([^"']+)["']`),  // js/ts `import ... from 'x'`
		regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`),     // js `require('x')`
		regexp.MustCompile(`(?m)^\s*import\s+\(?\s*["']?([\w./-]+)["']?`), // go/python
	}

	exportPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:const|function|class|interface|type)\s+(\w+)`),
	}
)

// keywordTaxonomy is the small fixed vocabulary scanned for the 0.1-per-hit
// keyword scoring contribution.
var keywordTaxonomy = []string{
	"auth", "login", "token", "session", "database", "query", "cache",
	"config", "error", "test", "handler", "route", "middleware", "client",
	"server", "api", "model", "schema", "validate", "parse",
}

func extractAll(patterns []*regexp.Regexp, content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if len(m) < 2 {
				continue
			}
			name := m[1]
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// ExtractSymbols parses function/type/import/export names and keyword hits
// out of file content using the language-agnostic regex families.
func ExtractSymbols(content string) (functions, types, imports, exports, keywords []string) {
	functions = extractAll(functionPatterns, content)
	types = extractAll(typePatterns, content)
	imports = extractAll(importPatterns, content)
	exports = extractAll(exportPatterns, content)

	lower := toLower(content)
	for _, kw := range keywordTaxonomy {
		if containsWord(lower, kw) {
			keywords = append(keywords, kw)
		}
	}
	return
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsWord(haystack, word string) bool {
	return regexp.MustCompile(regexp.QuoteMeta(word)).MatchString(haystack)
}

// DefaultIgnorePatterns are directory names excluded from semantic-index
// rebuilds and workspace search; a directory is skipped when its name
// equals one of them exactly.
var DefaultIgnorePatterns = []string{
	"node_modules", ".git", "dist", "build", "vendor", ".vibe",
	"target", "__pycache__", ".venv", "coverage",
}

// DefaultSourceExtensions is the standard source-extension set indexed and
// searched.
var DefaultSourceExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".rb", ".rs",
	".c", ".h", ".cpp", ".hpp", ".cs", ".php", ".kt", ".swift",
}
