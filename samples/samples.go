// Package samples provides curated hard questions per domain.
package samples

import "github.com/hupe1980/agentjury/core"

// Question is a sample debate question.
type Question struct {
	ID         string      `json:"id"`
	Domain     core.Domain `json:"domain"`
	Prompt     string      `json:"prompt"`
	Difficulty string      `json:"difficulty"`
}

var questions = []Question{
	hard("finance-1", core.DomainFinance, "Should a portfolio manager increase NVIDIA exposure given AI regulation uncertainty, considering valuation, concentration risk, and historical analogs?"),
	hard("finance-2", core.DomainFinance, "Is it defensible to mark a private AI startup at a 40x revenue multiple in the current rate environment?"),
	hard("finance-3", core.DomainFinance, "Would a bank breach Basel III liquidity rules by reallocating 15% of HQLA to tokenized treasuries?"),
	hard("finance-4", core.DomainFinance, "Does the carry trade unwind risk outweigh yield benefits for a USD investor adding 10% allocation to JPY bonds this quarter?"),
	hard("healthcare-1", core.DomainHealthcare, "A 55‑year‑old smoker has persistent cough, weight loss, and fatigue; how should a clinician prioritize differential diagnoses and next tests?"),
	hard("healthcare-2", core.DomainHealthcare, "In a patient on warfarin with fluctuating INR, should a clinician switch to a DOAC given stage‑3 CKD and recent GI bleed history?"),
	hard("healthcare-3", core.DomainHealthcare, "How should a hospital balance sepsis protocol timing with antibiotic stewardship when biomarkers are equivocal?"),
	hard("healthcare-4", core.DomainHealthcare, "For a patient with long‑COVID symptoms and normal imaging, what is the evidence‑based approach to management and return‑to‑work planning?"),
	hard("legal-1", core.DomainLegal, "Does a 3‑year non‑compete across all industries hold up in California versus Delaware, and what factors drive enforceability?"),
	hard("legal-2", core.DomainLegal, "Is a generative‑AI training dataset of public web content likely to qualify as fair use under recent US case law?"),
	hard("legal-3", core.DomainLegal, "Can a company rely on a browse‑wrap agreement for arbitration clauses after recent circuit splits on assent?"),
	hard("legal-4", core.DomainLegal, "Should a firm disclose a material cybersecurity incident under SEC rules within 4 business days if attribution is unclear?"),
	hard("general-1", core.DomainGeneral, "Will AGI be achieved before 2030 if current scaling trends continue but regulatory constraints tighten?"),
	hard("general-2", core.DomainGeneral, "Does the evidence support remote work policies improving long‑term productivity in knowledge work, despite short‑term gains?"),
	hard("general-3", core.DomainGeneral, "Should governments impose a moratorium on facial recognition in public spaces until bias and oversight standards mature?"),
	hard("general-4", core.DomainGeneral, "Is it defensible to mandate open‑sourcing frontier models given security, innovation, and competitive risks?"),
}

func hard(id string, d core.Domain, prompt string) Question {
	return Question{ID: id, Domain: d, Prompt: prompt, Difficulty: "hard"}
}

// All returns every sample question.
func All() []Question {
	return append([]Question(nil), questions...)
}

// ByDomain groups the sample questions by domain. Every known domain has an
// entry, possibly empty.
func ByDomain() map[core.Domain][]Question {
	out := make(map[core.Domain][]Question, len(core.Domains))
	for _, d := range core.Domains {
		out[d] = []Question{}
	}
	for _, q := range questions {
		out[q.Domain] = append(out[q.Domain], q)
	}
	return out
}

// For returns the sample questions of domain d.
func For(d core.Domain) []Question {
	return ByDomain()[d]
}

// Lookup returns the sample question with the given id.
func Lookup(id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
