// Package agent dispatches sourcing queries to a closed set of tools built
// over the knowledge base.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/F8ai/sourcing-agent/kb"
)

// AgentName identifies this agent in responses and status payloads.
const AgentName = "sourcing-agent"

// Tool is one named capability. The set is fixed and small, so tools are
// registered at construction; there is no runtime registry.
type Tool interface {
	Name() string
	Description() string
	Keywords() []string
	Run(ctx context.Context, input string) (string, error)
}

// Response is the answer to one processed query.
type Response struct {
	Response     string  `json:"response"`
	Confidence   float64 `json:"confidence"`
	ResponseTime float64 `json:"response_time"`
	UserID       string  `json:"user_id"`
	Agent        string  `json:"agent"`
}

// Status describes the agent's capabilities and knowledge base coverage.
type Status struct {
	AgentName      string     `json:"agent_name"`
	Status         string     `json:"status"`
	ToolsAvailable int        `json:"tools_available"`
	LastUpdated    string     `json:"last_updated"`
	KnowledgeBase  kb.Summary `json:"knowledge_base"`
	Capabilities   []string   `json:"capabilities"`
}

// Agent routes sourcing queries to the tool whose keywords best match.
type Agent struct {
	kb      *kb.KnowledgeBase
	tools   []Tool
	started time.Time
}

// New builds the agent with its five fixed tools.
func New(knowledge *kb.KnowledgeBase) *Agent {
	weights := defaultScoringWeights()
	return &Agent{
		kb: knowledge,
		tools: []Tool{
			&supplierSearchTool{kb: knowledge},
			&qualityAssessmentTool{kb: knowledge},
			&complianceCheckTool{kb: knowledge},
			&riskAnalysisTool{kb: knowledge},
			&costOptimizationTool{kb: knowledge, weights: weights},
		},
		started: time.Now(),
	}
}

// ProcessQuery answers one sourcing question. Tool errors surface to the
// caller; an unmatched query gets a capability overview at low confidence.
func (a *Agent) ProcessQuery(ctx context.Context, userID, query string) (*Response, error) {
	start := time.Now()

	tool, hits := a.match(query)
	response := &Response{
		UserID: userID,
		Agent:  AgentName,
	}

	if tool == nil {
		response.Response = a.overview()
		response.Confidence = 0.35
		response.ResponseTime = time.Since(start).Seconds()
		return response, nil
	}

	slog.Debug("dispatching query",
		slog.String("tool", tool.Name()),
		slog.Int("keyword_hits", hits),
	)

	answer, err := tool.Run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool.Name(), err)
	}

	response.Response = answer
	response.Confidence = confidenceFor(hits)
	response.ResponseTime = time.Since(start).Seconds()
	return response, nil
}

// GetStatus reports the agent's current capabilities.
func (a *Agent) GetStatus() Status {
	capabilities := make([]string, 0, len(a.tools))
	for _, tool := range a.tools {
		capabilities = append(capabilities, tool.Description())
	}
	return Status{
		AgentName:      AgentName,
		Status:         "active",
		ToolsAvailable: len(a.tools),
		LastUpdated:    a.started.Format(time.RFC3339),
		KnowledgeBase:  a.kb.Summarize(),
		Capabilities:   capabilities,
	}
}

// KnowledgeBase exposes the underlying store for read-only collaborators.
func (a *Agent) KnowledgeBase() *kb.KnowledgeBase {
	return a.kb
}

func (a *Agent) match(query string) (Tool, int) {
	lower := strings.ToLower(query)

	var best Tool
	bestHits := 0
	for _, tool := range a.tools {
		hits := 0
		for _, keyword := range tool.Keywords() {
			if strings.Contains(lower, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			best = tool
			bestHits = hits
		}
	}
	return best, bestHits
}

func (a *Agent) overview() string {
	var b strings.Builder
	b.WriteString("I can help with cannabis supply chain sourcing. Ask me about:\n")
	for _, tool := range a.tools {
		fmt.Fprintf(&b, "  - %s\n", tool.Description())
	}
	return b.String()
}

func confidenceFor(hits int) float64 {
	switch {
	case hits >= 3:
		return 0.9
	case hits == 2:
		return 0.75
	default:
		return 0.62
	}
}

func defaultScoringWeights() map[string]float64 {
	return map[string]float64{
		"quality":     0.30,
		"compliance":  0.25,
		"reliability": 0.20,
		"cost":        0.15,
		"service":     0.10,
	}
}
