package history

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
)

// Record is one stored analysis row. Column names follow the existing table,
// including "packaging " with its trailing space. MajorConcerns,
// ActionableAdvice and SuggestedAlternative hold JSON text.
type Record struct {
	RowNumber            int64  `json:"row_number"`
	UserID               string `json:"userID_AUTH"`
	Product              string `json:"product"`
	Brand                string `json:"brand"`
	Packaging            string `json:"packaging "`
	Origin               string `json:"origin"`
	SustainabilityScore  string `json:"Sustainability_score"`
	PackagingImpact      string `json:"packaging_impact"`
	IngredientImpact     string `json:"ingredient_impact"`
	Certifications       string `json:"certifications"`
	MajorConcerns        string `json:"major_concerns"`
	ActionableAdvice     string `json:"actionable_advice"`
	SuggestedAlternative string `json:"suggested_alternative"`
	Summary              string `json:"summary"`
}

// Entry is a record with its JSON text fields decoded for display
type Entry struct {
	Record
	Concerns    analysis.List        `json:"concerns"`
	Advice      analysis.List        `json:"advice"`
	Alternative analysis.Alternative `json:"alternative"`
}

func (e Entry) BadgeClass() string { return analysis.BadgeClass(e.SustainabilityScore) }

func (e Entry) HasCertifications() bool {
	return analysis.Result{Certifications: e.Certifications}.HasCertifications()
}

// Decode parses the JSON text fields of r. Fields that do not parse become
// an empty list or the empty alternative.
func Decode(r *Record) Entry {
	return Entry{
		Record:      *r,
		Concerns:    analysis.ParseList(r.MajorConcerns),
		Advice:      analysis.ParseList(r.ActionableAdvice),
		Alternative: analysis.ParseAlternative(r.SuggestedAlternative),
	}
}

func DecodeAll(records []*Record) []Entry {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, Decode(r))
	}
	return out
}

// FromResult builds a row for a finished analysis, encoding the structured
// fields as JSON text so existing readers keep working.
func FromResult(req analysis.Request, res analysis.Result) (*Record, error) {
	concerns, err := json.Marshal(nonNil(res.MajorConcerns))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode major concerns")
	}
	advice, err := json.Marshal(nonNil(res.ActionableAdvice))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode actionable advice")
	}
	alt, err := json.Marshal(res.SuggestedAlternative)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode suggested alternative")
	}

	return &Record{
		UserID:               req.UserID,
		Product:              req.Product,
		Brand:                req.Brand,
		Packaging:            req.Packaging,
		Origin:               req.Origin,
		SustainabilityScore:  res.SustainabilityScore,
		PackagingImpact:      res.PackagingImpact,
		IngredientImpact:     res.IngredientImpact,
		Certifications:       res.Certifications,
		MajorConcerns:        string(concerns),
		ActionableAdvice:     string(advice),
		SuggestedAlternative: string(alt),
		Summary:              res.Summary,
	}, nil
}

func nonNil(l analysis.List) []string {
	if l == nil {
		return []string{}
	}
	return l
}
