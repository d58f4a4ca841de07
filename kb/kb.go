// Package kb answers fixed-shape sourcing questions from the knowledge
// base document.
//
// The knowledge base ships as a typed JSON file; the query surface is a
// small closed set of shapes (categories, standards, strategies,
// compliance), so no triple store or query language sits underneath.
package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SupplierCategory describes one class of supplier and what qualifies it.
type SupplierCategory struct {
	URI            string   `json:"uri"`
	Label          string   `json:"label"`
	Products       []string `json:"products"`
	Qualifications []string `json:"qualifications"`
	Certifications []string `json:"certifications"`
	Services       []string `json:"services"`
	Compliance     []string `json:"compliance"`
}

// QualityStandard describes acceptance criteria for a product class.
type QualityStandard struct {
	URI          string   `json:"uri"`
	Label        string   `json:"label"`
	Criteria     []string `json:"criteria"`
	Testing      []string `json:"testing"`
	Nutrients    []string `json:"nutrients"`
	GrowingMedia []string `json:"growing_media"`
}

// SourcingStrategy describes one procurement approach.
type SourcingStrategy struct {
	URI            string   `json:"uri"`
	Label          string   `json:"label"`
	Advantages     []string `json:"advantages"`
	Challenges     []string `json:"challenges"`
	Approach       []string `json:"approach"`
	Benefits       []string `json:"benefits"`
	Scope          []string `json:"scope"`
	Considerations []string `json:"considerations"`
}

// ComplianceRequirement describes a regulatory obligation.
type ComplianceRequirement struct {
	URI           string   `json:"uri"`
	Label         string   `json:"label"`
	Regulations   []string `json:"regulations"`
	Documentation []string `json:"documentation"`
}

// AssessmentProcess holds the supplier scoring rubric.
type AssessmentProcess struct {
	URI            string   `json:"uri"`
	Label          string   `json:"label"`
	Criteria       []string `json:"criteria"`
	ScoringWeights []string `json:"scoring_weights"`
}

type document struct {
	SupplierCategories     []SupplierCategory      `json:"supplier_categories"`
	QualityStandards       []QualityStandard       `json:"quality_standards"`
	SourcingStrategies     []SourcingStrategy      `json:"sourcing_strategies"`
	ComplianceRequirements []ComplianceRequirement `json:"compliance_requirements"`
	AssessmentProcess      AssessmentProcess       `json:"assessment_process"`
}

// KnowledgeBase holds the loaded document. Zero value is an empty, usable
// knowledge base.
type KnowledgeBase struct {
	doc document
}

// Load reads the knowledge base document at path. On failure it returns an
// empty knowledge base together with the error; every query on the empty
// base answers with zero results.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &KnowledgeBase{}, fmt.Errorf("read knowledge base: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &KnowledgeBase{}, fmt.Errorf("parse knowledge base: %w", err)
	}
	return &KnowledgeBase{doc: doc}, nil
}

// SupplierCategories returns every supplier category.
func (k *KnowledgeBase) SupplierCategories() []SupplierCategory {
	return k.doc.SupplierCategories
}

// QualityStandards returns every quality standard.
func (k *KnowledgeBase) QualityStandards() []QualityStandard {
	return k.doc.QualityStandards
}

// SourcingStrategies returns every sourcing strategy.
func (k *KnowledgeBase) SourcingStrategies() []SourcingStrategy {
	return k.doc.SourcingStrategies
}

// ComplianceRequirements returns every compliance requirement.
func (k *KnowledgeBase) ComplianceRequirements() []ComplianceRequirement {
	return k.doc.ComplianceRequirements
}

// AssessmentCriteria returns the supplier assessment rubric.
func (k *KnowledgeBase) AssessmentCriteria() AssessmentProcess {
	return k.doc.AssessmentProcess
}

// SearchCategories returns categories whose label contains term,
// case-insensitively.
func (k *KnowledgeBase) SearchCategories(term string) []SupplierCategory {
	term = strings.ToLower(term)
	var out []SupplierCategory
	for _, category := range k.doc.SupplierCategories {
		if strings.Contains(strings.ToLower(category.Label), term) {
			out = append(out, category)
		}
	}
	return out
}

// SearchStandards returns quality standards whose label contains term,
// case-insensitively.
func (k *KnowledgeBase) SearchStandards(term string) []QualityStandard {
	term = strings.ToLower(term)
	var out []QualityStandard
	for _, standard := range k.doc.QualityStandards {
		if strings.Contains(strings.ToLower(standard.Label), term) {
			out = append(out, standard)
		}
	}
	return out
}

// Summary reports entry counts per section.
type Summary struct {
	SupplierCategories     int `json:"supplier_categories"`
	QualityStandards       int `json:"quality_standards"`
	SourcingStrategies     int `json:"sourcing_strategies"`
	ComplianceRequirements int `json:"compliance_requirements"`
	TotalEntries           int `json:"total_entries"`
}

// Summarize counts the knowledge base contents.
func (k *KnowledgeBase) Summarize() Summary {
	s := Summary{
		SupplierCategories:     len(k.doc.SupplierCategories),
		QualityStandards:       len(k.doc.QualityStandards),
		SourcingStrategies:     len(k.doc.SourcingStrategies),
		ComplianceRequirements: len(k.doc.ComplianceRequirements),
	}
	s.TotalEntries = s.SupplierCategories + s.QualityStandards + s.SourcingStrategies + s.ComplianceRequirements
	return s
}
