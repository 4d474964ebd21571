package prompt

import (
	"fmt"
	"strings"
)

// TextOperation names one AI text-processing mode.
type TextOperation string

const (
	OpEnhance         TextOperation = "enhance"
	OpSummarize       TextOperation = "summarize"
	OpExtractKeywords TextOperation = "extract_keywords"
	OpTranslate       TextOperation = "translate"
)

// AnalysisSystemPrompt instructs the provider to return the single-image
// analysis object.
const AnalysisSystemPrompt = `You are an expert at analyzing screenshots and generating contextual prompts.
Analyze the provided screenshot and the user's custom prompt to create a comprehensive analysis.

Return your response in JSON format with these fields:
- content_type: What type of content is shown (code, problem statement, error message, etc.)
- key_elements: Array of important elements identified in the screenshot
- suggested_prompt: An enhanced version of the user's prompt based on the screenshot content
- context_analysis: Detailed analysis of what the screenshot shows
- recommended_action: What the user should do next based on the content`

// ExtractTextInstruction asks for raw text only, used by the OCR-style flow.
const ExtractTextInstruction = "Extract all text content from this image. Return only the extracted text without any analysis or formatting."

// AnalysisUserPrompt frames the user's custom prompt for single-image analysis.
func AnalysisUserPrompt(userPrompt string) string {
	return fmt.Sprintf("User's custom prompt: %q\n\nPlease analyze this screenshot and enhance the prompt based on what you see.", userPrompt)
}

// MultiAnalysisSystemPrompt instructs the provider to return the multi-image
// analysis object for a named analysis type.
func MultiAnalysisSystemPrompt(analysisType string) string {
	return fmt.Sprintf(`You are analyzing multiple screenshots for %s.
Provide a comprehensive analysis that connects the information across all screenshots.

Return JSON with:
- overall_analysis: Summary of all screenshots together
- individual_insights: Array of insights for each screenshot
- connections: How the screenshots relate to each other
- recommendations: What actions to take based on the complete picture`, analysisType)
}

// MultiAnalysisUserPrompt frames a multi-image request.
func MultiAnalysisUserPrompt(count int, analysisType string) string {
	return fmt.Sprintf("Please analyze these %d screenshots for %s. Look for connections and provide comprehensive insights.", count, analysisType)
}

// ResponseSystemPrompt frames a custom-prompt generation request with prior
// analysis context.
func ResponseSystemPrompt(language string, analysis Analysis) string {
	contentType := analysis.ContentType
	if contentType == "" {
		contentType = "unknown"
	}
	keyElements := "none"
	if len(analysis.KeyElements) > 0 {
		keyElements = strings.Join(analysis.KeyElements, ", ")
	}
	contextAnalysis := analysis.ContextAnalysis
	if contextAnalysis == "" {
		contextAnalysis = "none"
	}

	return fmt.Sprintf(`You are an expert assistant. Generate a helpful response based on the user's custom prompt and the provided context.

Context Information:
- Language: %s
- Content Type: %s
- Key Elements: %s
- Previous Analysis: %s

Provide a clear, actionable response that directly addresses the user's prompt while considering the context.`,
		language, contentType, keyElements, contextAnalysis)
}

// TextOperationPrompt builds the instruction for one text-processing mode.
// Unknown operations fall through to a generic framing rather than failing.
func TextOperationPrompt(op TextOperation, text string) string {
	switch op {
	case OpEnhance:
		return "Please enhance and improve this text, fixing any errors and making it more readable:\n\n" + text
	case OpSummarize:
		return "Please provide a concise summary of this text:\n\n" + text
	case OpExtractKeywords:
		return "Please extract the key terms and important keywords from this text:\n\n" + text
	case OpTranslate:
		return "Please translate this text to English if it's in another language, or improve the English if it's already in English:\n\n" + text
	default:
		return fmt.Sprintf("Please process this text according to the operation %q:\n\n%s", string(op), text)
	}
}
