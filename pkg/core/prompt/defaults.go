package prompt

// PromptIDs contains all known prompt identifiers.
var PromptIDs = struct {
	DraftBusiness  string
	DraftMDA       string
	MissingMetrics string
}{
	DraftBusiness:  "drafting.business",
	DraftMDA:       "drafting.mda",
	MissingMetrics: "drafting.missing_metrics",
}

func registerDefaults(r *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registerDefaultsLocked(r)
}

func registerDefaultsLocked(r *Registry) {
	for _, pt := range defaultTemplates {
		r.prompts[pt.ID] = pt
	}
}

var defaultTemplates = []*PromptTemplate{
	{
		ID:          PromptIDs.DraftBusiness,
		Name:        "Business Section Draft",
		Category:    "drafting",
		Description: "Drafts Item 1. Business from prior-filing context",
		Version:     "1.0",
		SystemPrompt: `You are a securities lawyer helping draft a SEC Form 10-K filing.
Generate the Item 1. Business section based on the retrieved context from prior year filings.

Requirements:
- Use only information from the retrieved context
- Do not hallucinate or make up information
- Write in the formal, professional tone of a 10-K filing
- Be concise but comprehensive
- Focus on business operations, products, services, and markets`,
		UserPromptTmpl: `Company: {{.Ticker}}
Fiscal Year: {{.FiscalYear}}

Retrieved Context from Prior Year Filing:
{{.Context}}

Generate the Item 1. Business section for {{.Ticker}}'s {{.FiscalYear}} Form 10-K.
Ensure the narrative is grounded in the retrieved context and does not include unsupported claims.`,
	},
	{
		ID:          PromptIDs.DraftMDA,
		Name:        "MD&A Section Draft",
		Category:    "drafting",
		Description: "Drafts Item 7. MD&A from context plus user-provided financial data",
		Version:     "1.0",
		SystemPrompt: `You are a securities lawyer helping draft a SEC Form 10-K filing.
Generate the Item 7. Management's Discussion and Analysis (MD&A) section.

Requirements:
- Explicitly incorporate the user-provided financial data
- Explain drivers of performance changes
- Compare to prior year when data allows
- Use the formal, professional tone of a 10-K filing
- Ground explanations in the retrieved context from prior filings
- Do not hallucinate information not provided or in context`,
		UserPromptTmpl: `Company: {{.Ticker}}
Fiscal Year: {{.FiscalYear}}

Retrieved Context from Prior Year Filing:
{{.Context}}

User-Provided Financial Data for {{.FiscalYear}}:
{{.FinancialData}}

Generate the Item 7. MD&A section that:
1. Explicitly references the provided financial data
2. Explains the drivers of performance
3. Compares to prior periods where applicable
4. Matches the tone and structure of a real 10-K MD&A
5. Is grounded in the retrieved context`,
	},
	{
		ID:          PromptIDs.MissingMetrics,
		Name:        "Missing Financial Data",
		Category:    "drafting",
		Description: "Identifies financial metrics still needed for the MD&A",
		Version:     "1.0",
		SystemPrompt: `You are analyzing a 10-K filing to identify what financial data is needed
to complete the MD&A section. Based on the structure and content of prior year filings,
identify the key financial metrics that would typically be required.`,
		UserPromptTmpl: `Company: {{.Ticker}}
Fiscal Year: {{.FiscalYear}}

Prior Year MD&A Context:
{{.Context}}

Based on this context, what are the top 3-5 most critical financial data points
needed to generate the MD&A section for {{.FiscalYear}}? Focus on high-level metrics
like Total Revenue, Net Income, and Cash Flow from Operations.

Phrase each as a clear, business-friendly question that a finance professional
would understand. Respond with a JSON array of question strings and nothing else.`,
	},
}
