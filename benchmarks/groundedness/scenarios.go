// ABOUTME: Synthetic whitepaper scenarios for the groundedness benchmark
// ABOUTME: Each question expects either a citation of specific pages or the refusal literal

package groundedness

import "strings"

// Scenario is one synthetic whitepaper with the questions asked against it
type Scenario struct {
	ID          string
	Name        string
	Description string
	Pages       []string
	Questions   []Question
}

// Question is a single query with its ground truth
type Question struct {
	Text string

	// ExpectRefusal means the document does not support an answer
	ExpectRefusal bool

	// ExpectedPages must be cited in REFERENCES when an answer is expected
	ExpectedPages []int

	// ExpectedInAnswer are strings that must appear in the answer (case-insensitive)
	ExpectedInAnswer []string
}

// Document joins the pages with form feeds, the page separator for text documents
func (s Scenario) Document() []byte {
	return []byte(strings.Join(s.Pages, "\f"))
}

// GetTokenomicsScenario covers supply and allocation questions plus unsupported market questions
func GetTokenomicsScenario() Scenario {
	return Scenario{
		ID:          "tokenomics",
		Name:        "Tokenomics and allocation",
		Description: "Answers must cite the tokenomics page; price questions must be refused",
		Pages: []string{
			"# INTRODUCTION\nMeridian is a settlement network for cross-border payments between regional banks.",
			"# TOKENOMICS\nThe total supply is fixed at 1,000,000,000 MRD tokens.\nTwenty percent of supply is allocated to the foundation treasury.",
			"# TEAM\nThe core team consists of twelve engineers based in Lisbon and Singapore.",
		},
		Questions: []Question{
			{
				Text:             "What is the total supply of MRD tokens?",
				ExpectedPages:    []int{2},
				ExpectedInAnswer: []string{"1,000,000,000"},
			},
			{
				Text:          "Where is the core team based?",
				ExpectedPages: []int{3},
			},
			{
				Text:          "What will the price be next year?",
				ExpectRefusal: true,
			},
		},
	}
}

// GetSecurityScenario covers audit and consensus questions plus a question about missing data
func GetSecurityScenario() Scenario {
	return Scenario{
		ID:          "security",
		Name:        "Security and consensus",
		Description: "Security claims must be cited; absent insurance details must be refused",
		Pages: []string{
			"# CONSENSUS\nBlocks are finalized by a rotating committee of forty validators using BFT voting.",
			"# SECURITY AUDITS\nThe bridge contracts were audited by two independent firms in 2024.",
		},
		Questions: []Question{
			{
				Text:          "How are blocks finalized by validators?",
				ExpectedPages: []int{1},
			},
			{
				Text:          "Were the bridge contracts audited?",
				ExpectedPages: []int{2},
			},
			{
				Text:          "Which insurer underwrites deposit losses?",
				ExpectRefusal: true,
			},
		},
	}
}

// GetRoadmapScenario covers a document without headings and an empty question
func GetRoadmapScenario() Scenario {
	return Scenario{
		ID:          "roadmap",
		Name:        "Roadmap without headings",
		Description: "Chunks fall under the unknown section; blank questions are refused",
		Pages: []string{
			"The mainnet launch is planned after the public testnet completes its final milestone.",
		},
		Questions: []Question{
			{
				Text:          "When is the mainnet launch planned?",
				ExpectedPages: []int{1},
			},
			{
				Text:          "   ",
				ExpectRefusal: true,
			},
		},
	}
}

// GetAllScenarios returns every benchmark scenario
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetTokenomicsScenario(),
		GetSecurityScenario(),
		GetRoadmapScenario(),
	}
}

// GetScenario finds a scenario by id
func GetScenario(id string) (Scenario, bool) {
	for _, s := range GetAllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
