package analysis

// Request is what the form submits for one product
type Request struct {
	UserID    string `json:"id"`
	Product   string `json:"product"`
	Brand     string `json:"brand"`
	Packaging string `json:"packaging"`
	Origin    string `json:"origin"`
}

// Alternative is the product suggested in place of the analysed one
type Alternative struct {
	Product string `json:"product"`
	Brand   string `json:"brand"`
	Reason  string `json:"reason"`
}

// Result is one sustainability analysis as returned by the webhook
type Result struct {
	SustainabilityScore  string      `json:"sustainability_score"`
	PackagingImpact      string      `json:"packaging_impact"`
	IngredientImpact     string      `json:"ingredient_impact"`
	Certifications       string      `json:"certifications"`
	MajorConcerns        List        `json:"major_concerns"`
	SuggestedAlternative Alternative `json:"suggested_alternative"`
	ActionableAdvice     List        `json:"actionable_advice"`
	Summary              string      `json:"summary"`
}

// Envelope wraps a result the way the webhook nests it
type Envelope struct {
	Output Result `json:"output"`
}

// Report is the full webhook answer, usually a single envelope
type Report []Envelope

// NoCertifications is the webhook's marker for "nothing to show"
const NoCertifications = "None found"

// HasCertifications reports whether the certifications line should be shown
func (r Result) HasCertifications() bool {
	return r.Certifications != "" && r.Certifications != NoCertifications
}

// HasAlternative reports whether the alternative block carries anything
func (a Alternative) HasAlternative() bool {
	return a.Product != ""
}
