package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the structured result of a single-image analysis request.
type Analysis struct {
	ContentType       string   `json:"content_type"`
	KeyElements       []string `json:"key_elements"`
	SuggestedPrompt   string   `json:"suggested_prompt"`
	ContextAnalysis   string   `json:"context_analysis"`
	RecommendedAction string   `json:"recommended_action"`
}

// MultiAnalysis is the structured result of a multi-image analysis request.
// IndividualInsights is always index-aligned 1:1 with the input images.
type MultiAnalysis struct {
	OverallAnalysis    string   `json:"overall_analysis"`
	IndividualInsights []string `json:"individual_insights"`
	Connections        string   `json:"connections"`
	Recommendations    string   `json:"recommendations"`
}

// ExtractObject returns the candidate object region of a reply: the
// substring from the first '{' through the last '}'. This is deliberately a
// permissive scan, not a JSON tokenizer; replies routinely wrap the object
// in prose.
func ExtractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseAnalysis extracts a structured analysis from raw provider text.
// It never fails: when no parsable object is found, a degraded analysis is
// synthesized from the raw text so callers always receive the full field set.
func ParseAnalysis(raw string, userPrompt string) Analysis {
	region, ok := ExtractObject(raw)
	if !ok {
		return Analysis{
			ContentType:       "unknown",
			KeyElements:       []string{"Screenshot analysis available"},
			SuggestedPrompt:   userPrompt,
			ContextAnalysis:   raw,
			RecommendedAction: "Review the analysis and proceed accordingly",
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(region), &analysis); err != nil {
		return Analysis{
			ContentType:       "text_analysis",
			KeyElements:       []string{"Analysis completed"},
			SuggestedPrompt:   userPrompt,
			ContextAnalysis:   raw,
			RecommendedAction: "Review the provided analysis",
		}
	}

	// A parsed object may still omit required fields; fill the gaps so the
	// caller never sees a partial schema.
	if strings.TrimSpace(analysis.ContentType) == "" {
		analysis.ContentType = "unknown"
	}
	if len(analysis.KeyElements) == 0 {
		analysis.KeyElements = []string{"Screenshot analysis available"}
	}
	if strings.TrimSpace(analysis.SuggestedPrompt) == "" {
		analysis.SuggestedPrompt = userPrompt
	}
	if strings.TrimSpace(analysis.ContextAnalysis) == "" {
		analysis.ContextAnalysis = raw
	}
	if strings.TrimSpace(analysis.RecommendedAction) == "" {
		analysis.RecommendedAction = "Review the analysis and proceed accordingly"
	}
	return analysis
}

// ParseMultiAnalysis extracts a structured multi-image analysis. Like
// ParseAnalysis it never fails, and it guarantees exactly one insight slot
// per input image regardless of what the provider returned.
func ParseMultiAnalysis(raw string, imageCount int) MultiAnalysis {
	analysis := MultiAnalysis{
		OverallAnalysis: raw,
		Connections:     "See overall analysis",
		Recommendations: "Review the provided analysis",
	}

	if region, ok := ExtractObject(raw); ok {
		var parsed MultiAnalysis
		if err := json.Unmarshal([]byte(region), &parsed); err == nil {
			analysis = parsed
		}
	}

	if strings.TrimSpace(analysis.OverallAnalysis) == "" {
		analysis.OverallAnalysis = raw
	}
	if strings.TrimSpace(analysis.Connections) == "" {
		analysis.Connections = "See overall analysis"
	}
	if strings.TrimSpace(analysis.Recommendations) == "" {
		analysis.Recommendations = "Review the provided analysis"
	}
	analysis.IndividualInsights = alignInsights(analysis.IndividualInsights, imageCount)
	return analysis
}

// alignInsights pads or truncates insights to exactly count slots.
func alignInsights(insights []string, count int) []string {
	if count < 0 {
		count = 0
	}
	aligned := make([]string, count)
	for i := 0; i < count; i++ {
		if i < len(insights) && strings.TrimSpace(insights[i]) != "" {
			aligned[i] = insights[i]
			continue
		}
		aligned[i] = fmt.Sprintf("Analysis for screenshot %d", i+1)
	}
	return aligned
}
