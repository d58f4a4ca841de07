package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/F8ai/sourcing-agent/kb"
)

const sampleDocument = `{
	"supplier_categories": [
		{
			"label": "Genetics Supplier",
			"products": ["Seeds", "Clones"],
			"qualifications": ["Verified genetics"]
		},
		{
			"label": "Nutrient Supplier",
			"products": ["Base nutrients"],
			"certifications": ["OMRI listing"]
		}
	],
	"quality_standards": [
		{
			"label": "Genetics Quality Standard",
			"criteria": ["Germination rate above 90%"],
			"testing": ["HLVd screening"]
		}
	],
	"sourcing_strategies": [
		{
			"label": "Local Sourcing",
			"advantages": ["Shorter lead times"],
			"challenges": ["Limited supplier pool"],
			"benefits": ["Freight savings"]
		}
	],
	"compliance_requirements": [
		{
			"label": "State Licensing",
			"regulations": ["Supplier holds valid state license"],
			"documentation": ["License certificate copy"]
		}
	]
}`

func testAgent(t *testing.T) *Agent {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge_base.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	knowledge, err := kb.Load(path)
	if err != nil {
		t.Fatalf("load knowledge base: %v", err)
	}
	return New(knowledge)
}

func TestProcessQueryRouting(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains string
	}{
		{
			name:     "supplier search",
			query:    "find nutrient suppliers",
			contains: "Nutrient Supplier",
		},
		{
			name:     "quality assessment",
			query:    "assess quality standards for genetics",
			contains: "Quality Assessment",
		},
		{
			name:     "compliance check",
			query:    "what compliance regulations apply",
			contains: "Compliance Check Results",
		},
		{
			name:     "risk analysis",
			query:    "supply chain risk mitigation options",
			contains: "Supply Chain Risk Analysis",
		},
		{
			name:     "cost optimization",
			query:    "optimize our sourcing cost",
			contains: "Cost Optimization Analysis",
		},
	}

	a := testAgent(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := a.ProcessQuery(context.Background(), "test_user", tt.query)
			if err != nil {
				t.Fatalf("process query: %v", err)
			}
			if !strings.Contains(response.Response, tt.contains) {
				t.Fatalf("response %q should contain %q", response.Response, tt.contains)
			}
			if response.UserID != "test_user" || response.Agent != AgentName {
				t.Fatalf("attribution = %q/%q", response.UserID, response.Agent)
			}
			if response.Confidence <= 0.35 {
				t.Fatalf("matched query confidence = %v, want above fallback", response.Confidence)
			}
			if response.ResponseTime < 0 {
				t.Fatalf("response time = %v", response.ResponseTime)
			}
		})
	}
}

func TestProcessQueryUnmatchedGivesOverview(t *testing.T) {
	a := testAgent(t)

	response, err := a.ProcessQuery(context.Background(), "test_user", "hello there")
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	if response.Confidence != 0.35 {
		t.Fatalf("fallback confidence = %v, want 0.35", response.Confidence)
	}
	for _, tool := range a.tools {
		if !strings.Contains(response.Response, tool.Description()) {
			t.Fatalf("overview should list %q", tool.Description())
		}
	}
}

func TestConfidenceScalesWithKeywordHits(t *testing.T) {
	a := testAgent(t)

	weak, err := a.ProcessQuery(context.Background(), "u", "any risk involved?")
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	strong, err := a.ProcessQuery(context.Background(), "u", "assess quality standards and testing criteria")
	if err != nil {
		t.Fatalf("process query: %v", err)
	}

	if weak.Confidence != 0.62 {
		t.Fatalf("single-hit confidence = %v, want 0.62", weak.Confidence)
	}
	if strong.Confidence != 0.9 {
		t.Fatalf("multi-hit confidence = %v, want 0.9", strong.Confidence)
	}
}

func TestSupplierSearchNoMatches(t *testing.T) {
	a := testAgent(t)

	response, err := a.ProcessQuery(context.Background(), "u", "find xyzzy suppliers")
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	if !strings.Contains(response.Response, "No matching supplier categories") {
		t.Fatalf("response = %q", response.Response)
	}
}

func TestGetStatus(t *testing.T) {
	a := testAgent(t)

	status := a.GetStatus()
	if status.AgentName != AgentName {
		t.Fatalf("agent name = %q, want %q", status.AgentName, AgentName)
	}
	if status.Status != "active" {
		t.Fatalf("status = %q, want active", status.Status)
	}
	if status.ToolsAvailable != 5 || len(status.Capabilities) != 5 {
		t.Fatalf("tools = %d, capabilities = %d, want 5/5", status.ToolsAvailable, len(status.Capabilities))
	}
	if status.KnowledgeBase.TotalEntries != 5 {
		t.Fatalf("knowledge base total = %d, want 5", status.KnowledgeBase.TotalEntries)
	}
	if status.LastUpdated == "" {
		t.Fatalf("last updated should be set")
	}
}

func TestAgentWorksWithEmptyKnowledgeBase(t *testing.T) {
	a := New(&kb.KnowledgeBase{})

	response, err := a.ProcessQuery(context.Background(), "u", "find nutrient suppliers")
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	if response.Response == "" {
		t.Fatalf("empty knowledge base should still answer")
	}
}
