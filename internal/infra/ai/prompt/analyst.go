package prompt

import (
	"fmt"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
)

// GetSystemPrompt gives strict directions and the schema for the JSON output.
func GetSystemPrompt() string {
	return `You are a sustainability analyst for consumer products. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object with a top-level "output" key.
- sustainability_score is one of: High, Medium, Low.
- major_concerns and actionable_advice are arrays of short strings.
- certifications is a comma separated string, or "None found" when you know of none.
- When you are unsure about the product, reason conservatively from the packaging and origin.

Schema (example with empty values):
{
  "output": {
    "sustainability_score": "<High|Medium|Low>",
    "packaging_impact": "<string>",
    "ingredient_impact": "<string>",
    "certifications": "<string>",
    "major_concerns": ["<string>"],
    "suggested_alternative": {"product": "<string>", "brand": "<string>", "reason": "<string>"},
    "actionable_advice": ["<string>"],
    "summary": "<string>"
  }
}`
}

// GetUserPrompt describes the product submitted by the user.
func GetUserPrompt(req analysis.Request) string {
	return fmt.Sprintf("Analyze the sustainability of this product and respond with the JSON per schema.\nProduct: %s\nBrand: %s\nPackaging: %s\nOrigin: %s",
		req.Product, req.Brand, req.Packaging, req.Origin)
}
