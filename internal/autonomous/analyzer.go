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

package autonomous

import "strings"

// DefaultCompletionSignals are sentinel tokens an iteration response may
// emit to signal the task is done.
var DefaultCompletionSignals = []string{
	"TASK_COMPLETE",
	"DONE",
	"I have completed the task",
}

// DefaultStuckIndicators are markers suggesting the loop is making no
// progress.
var DefaultStuckIndicators = []string{
	"I'm not sure",
	"I am not sure",
	"cannot proceed",
	"can't proceed",
	"I don't know how to",
	"unable to continue",
}

// ResponseAnalyzer scans one iteration's response for completion signals
// and stuck indicators.
type ResponseAnalyzer struct {
	CompletionSignals   []string
	StuckIndicators     []string
	ConfidenceThreshold float64
	StuckThreshold      int
}

// NewResponseAnalyzer builds an analyzer with the default signal/indicator
// vocabulary and the given thresholds.
func NewResponseAnalyzer(confidenceThreshold float64, stuckThreshold int) *ResponseAnalyzer {
	return &ResponseAnalyzer{
		CompletionSignals:   DefaultCompletionSignals,
		StuckIndicators:     DefaultStuckIndicators,
		ConfidenceThreshold: confidenceThreshold,
		StuckThreshold:      stuckThreshold,
	}
}

// Analysis is the per-iteration verdict the loop's decision step consumes.
type Analysis struct {
	IsComplete    bool
	Confidence    float64
	StuckHitCount int
	RepeatsLast   bool
}

// Analyze scores response against the completion/stuck vocabularies, and
// against priorResponses for identical-response repetition (itself a
// stuck indicator).
func (a *ResponseAnalyzer) Analyze(response string, priorResponses []string) Analysis {
	signalHits := 0
	for _, s := range a.CompletionSignals {
		if strings.Contains(response, s) {
			signalHits++
		}
	}
	confidence := 0.0
	if len(a.CompletionSignals) > 0 {
		confidence = float64(signalHits)
		if confidence > 1 {
			confidence = 1
		}
	}

	stuckHits := 0
	for _, m := range a.StuckIndicators {
		if strings.Contains(response, m) {
			stuckHits++
		}
	}

	repeats := false
	if len(priorResponses) > 0 && priorResponses[len(priorResponses)-1] == response {
		repeats = true
		stuckHits++
	}

	return Analysis{
		IsComplete:    signalHits > 0,
		Confidence:    confidence,
		StuckHitCount: stuckHits,
		RepeatsLast:   repeats,
	}
}
