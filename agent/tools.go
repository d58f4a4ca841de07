package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/F8ai/sourcing-agent/kb"
)

type supplierSearchTool struct {
	kb *kb.KnowledgeBase
}

func (t *supplierSearchTool) Name() string { return "supplier_search" }

func (t *supplierSearchTool) Description() string {
	return "Search for suppliers by category, location, or certification"
}

func (t *supplierSearchTool) Keywords() []string {
	return []string{"supplier", "vendor", "find", "source", "genetics", "seeds", "nutrients", "equipment", "packaging"}
}

func (t *supplierSearchTool) Run(_ context.Context, input string) (string, error) {
	terms := strings.Fields(strings.ToLower(input))

	var matched []kb.SupplierCategory
	for _, category := range t.kb.SupplierCategories() {
		haystack := strings.ToLower(strings.Join(append(
			[]string{category.Label},
			append(category.Products, category.Qualifications...)...,
		), " "))
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched = append(matched, category)
				break
			}
		}
	}

	if len(matched) == 0 {
		return "No matching supplier categories found. Try different search terms.", nil
	}

	var b strings.Builder
	b.WriteString("Found matching supplier categories:\n\n")
	for _, category := range matched {
		fmt.Fprintf(&b, "**%s**\n", category.Label)
		if len(category.Products) > 0 {
			fmt.Fprintf(&b, "Products: %s\n", strings.Join(category.Products, ", "))
		}
		if len(category.Qualifications) > 0 {
			fmt.Fprintf(&b, "Qualifications: %s\n", strings.Join(category.Qualifications, ", "))
		}
		if len(category.Certifications) > 0 {
			fmt.Fprintf(&b, "Certifications: %s\n", strings.Join(category.Certifications, ", "))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

type qualityAssessmentTool struct {
	kb *kb.KnowledgeBase
}

func (t *qualityAssessmentTool) Name() string { return "quality_assessment" }

func (t *qualityAssessmentTool) Description() string {
	return "Assess supplier quality against industry standards"
}

func (t *qualityAssessmentTool) Keywords() []string {
	return []string{"quality", "standard", "assess", "testing", "criteria", "potency"}
}

func (t *qualityAssessmentTool) Run(_ context.Context, input string) (string, error) {
	lower := strings.ToLower(input)

	var b strings.Builder
	b.WriteString("Quality Assessment:\n\n")

	matchedAny := false
	for _, standard := range t.kb.QualityStandards() {
		relevant := false
		for _, word := range strings.Fields(strings.ToLower(standard.Label)) {
			if strings.Contains(lower, word) {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		matchedAny = true
		writeStandard(&b, standard)
	}

	// Nothing matched by name: report every standard so the caller still
	// gets a usable rubric.
	if !matchedAny {
		for _, standard := range t.kb.QualityStandards() {
			writeStandard(&b, standard)
		}
	}
	return b.String(), nil
}

func writeStandard(b *strings.Builder, standard kb.QualityStandard) {
	fmt.Fprintf(b, "**%s**\n", standard.Label)
	if len(standard.Criteria) > 0 {
		b.WriteString("Criteria:\n")
		for _, criterion := range standard.Criteria {
			fmt.Fprintf(b, "  - %s\n", criterion)
		}
	}
	if len(standard.Testing) > 0 {
		b.WriteString("Testing Requirements:\n")
		for _, test := range standard.Testing {
			fmt.Fprintf(b, "  - %s\n", test)
		}
	}
	b.WriteString("\n")
}

type complianceCheckTool struct {
	kb *kb.KnowledgeBase
}

func (t *complianceCheckTool) Name() string { return "compliance_check" }

func (t *complianceCheckTool) Description() string {
	return "Check supplier compliance with cannabis industry regulations"
}

func (t *complianceCheckTool) Keywords() []string {
	return []string{"compliance", "compliant", "regulation", "license", "legal", "documentation"}
}

func (t *complianceCheckTool) Run(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	b.WriteString("Compliance Check Results:\n\n")

	for _, requirement := range t.kb.ComplianceRequirements() {
		fmt.Fprintf(&b, "**%s**\n", requirement.Label)
		if len(requirement.Regulations) > 0 {
			b.WriteString("Required Regulations:\n")
			for _, regulation := range requirement.Regulations {
				fmt.Fprintf(&b, "  - %s\n", regulation)
			}
		}
		if len(requirement.Documentation) > 0 {
			b.WriteString("Required Documentation:\n")
			for _, doc := range requirement.Documentation {
				fmt.Fprintf(&b, "  - %s\n", doc)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

type riskAnalysisTool struct {
	kb *kb.KnowledgeBase
}

func (t *riskAnalysisTool) Name() string { return "risk_analysis" }

func (t *riskAnalysisTool) Description() string {
	return "Analyze supply chain risks and provide mitigation strategies"
}

func (t *riskAnalysisTool) Keywords() []string {
	return []string{"risk", "mitigation", "disruption", "shortage", "contingency"}
}

func (t *riskAnalysisTool) Run(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	b.WriteString("Supply Chain Risk Analysis:\n\n")

	for _, strategy := range t.kb.SourcingStrategies() {
		fmt.Fprintf(&b, "**%s**\n", strategy.Label)
		if len(strategy.Challenges) > 0 {
			b.WriteString("Risks:\n")
			for _, challenge := range strategy.Challenges {
				fmt.Fprintf(&b, "  - %s\n", challenge)
			}
		}
		if len(strategy.Advantages) > 0 {
			b.WriteString("Mitigations:\n")
			for _, advantage := range strategy.Advantages {
				fmt.Fprintf(&b, "  - %s\n", advantage)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

type costOptimizationTool struct {
	kb      *kb.KnowledgeBase
	weights map[string]float64
}

func (t *costOptimizationTool) Name() string { return "cost_optimization" }

func (t *costOptimizationTool) Description() string {
	return "Analyze total cost of ownership and optimization opportunities"
}

func (t *costOptimizationTool) Keywords() []string {
	return []string{"cost", "price", "pricing", "optimize", "budget", "savings", "cheaper"}
}

func (t *costOptimizationTool) Run(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	b.WriteString("Cost Optimization Analysis:\n\n")

	b.WriteString("Supplier scoring weights:\n")
	names := make([]string, 0, len(t.weights))
	for name := range t.weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  - %s: %.0f%%\n", name, t.weights[name]*100)
	}
	b.WriteString("\n")

	for _, strategy := range t.kb.SourcingStrategies() {
		if len(strategy.Benefits) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s**\n", strategy.Label)
		for _, benefit := range strategy.Benefits {
			fmt.Fprintf(&b, "  - %s\n", benefit)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
