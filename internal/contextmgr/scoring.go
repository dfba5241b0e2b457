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

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/vibeagent/vibe/internal/vibemodel"
)

// ScoredFile is one entry of selectRelevantFiles' result.
type ScoredFile struct {
	Path         string
	Score        float64
	MatchReasons []string
	TokenCount   int
}

// score implements the design-level scoring formula: a clamped [0,1] sum of
// path-keyword, symbol, import and keyword-taxonomy contributions, then a
// recency multiplier.
func score(query string, e vibemodel.SemanticIndexEntry, now time.Time) (float64, []string) {
	q := strings.ToLower(query)
	terms := strings.Fields(q)
	var total float64
	var reasons []string

	lowerPath := strings.ToLower(e.Path)
	for _, t := range terms {
		if t != "" && strings.Contains(lowerPath, t) {
			total += 0.3
			reasons = append(reasons, "path contains \""+t+"\"")
			break
		}
	}

	symbolHit := false
	for _, fn := range e.Functions {
		if matchesAny(fn, terms) {
			total += 0.4
			reasons = append(reasons, "function \""+fn+"\" matches query")
			symbolHit = true
			break
		}
	}
	if !symbolHit {
		for _, ty := range e.Types {
			if matchesAny(ty, terms) {
				total += 0.4
				reasons = append(reasons, "type \""+ty+"\" matches query")
				break
			}
		}
	}

	for _, imp := range e.Imports {
		if matchesAny(imp, terms) {
			total += 0.2
			reasons = append(reasons, "import \""+imp+"\" matches query")
			break
		}
	}

	hits := 0
	for _, kw := range e.Keywords {
		for _, t := range terms {
			if kw == t {
				hits++
			}
		}
	}
	if hits > 0 {
		total += 0.1 * float64(hits)
		reasons = append(reasons, "keyword taxonomy hits")
	}

	if isSourceExt(e.Path) {
		total += 0.05
	}

	if total > 1 {
		total = 1
	}

	total *= recencyMultiplier(e.LastModified, now)
	if total > 1 {
		total = 1
	}

	return total, reasons
}

func isSourceExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range DefaultSourceExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// recencyMultiplier implements: modified-today -> x1.3, this-week -> x1.2,
// this-month -> x1.1, else x1.0.
func recencyMultiplier(lastModifiedNano int64, now time.Time) float64 {
	if lastModifiedNano == 0 {
		return 1.0
	}
	modified := time.Unix(0, lastModifiedNano)
	age := now.Sub(modified)
	switch {
	case age <= 24*time.Hour:
		return 1.3
	case age <= 7*24*time.Hour:
		return 1.2
	case age <= 30*24*time.Hour:
		return 1.1
	default:
		return 1.0
	}
}
