// Copyright 2026 Caselode
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"regexp"
	"strings"

	"github.com/caselode/lexbase/core"
)

// Relevance categories emitted by the classifier.
const (
	CategoryAuthorization = "authorization"
	CategoryCompliance    = "compliance"
	CategoryAppeal        = "appeal"
	CategoryProcedure     = "procedure"

	AgentTypeLegalRepresentative      = "legal-representative"
	AgentTypeAuthorizedRepresentative = "authorized-representative"
)

// ClassifierWeights holds the tunable scoring parameters. The values
// are hand-tuned, not derived, so they are configuration rather than
// invariants.
type ClassifierWeights struct {
	Authorization  float64 `yaml:"authorization"`
	Compliance     float64 `yaml:"compliance"`
	Appeal         float64 `yaml:"appeal"`
	Procedure      float64 `yaml:"procedure"`
	AgentType      float64 `yaml:"agentType"`
	AgentIndicator float64 `yaml:"agentIndicator"`

	// RelevanceThreshold is the minimum confidence for a single-category
	// match to count as relevant. Two or more matched categories are
	// always relevant.
	RelevanceThreshold float64 `yaml:"relevanceThreshold"`
}

// DefaultClassifierWeights returns the tuning used in production.
func DefaultClassifierWeights() ClassifierWeights {
	return ClassifierWeights{
		Authorization:      0.30,
		Compliance:         0.20,
		Appeal:             0.25,
		Procedure:          0.15,
		AgentType:          0.10,
		AgentIndicator:     0.20,
		RelevanceThreshold: 0.30,
	}
}

// Classifier scores normalized text against weighted keyword categories.
// Classification is deterministic and order-independent; identical input
// always yields an identical verdict.
type Classifier struct {
	weights    ClassifierWeights
	categories []categoryRule
	agentTypes []categoryRule
	indicators *regexp.Regexp
}

type categoryRule struct {
	name    string
	weight  float64
	pattern *regexp.Regexp
}

// Patterns run against a lower-cased scan buffer, so they are all
// lower-case themselves.
var (
	authorizationPattern = regexp.MustCompile(`authoriz|permission|consent`)
	compliancePattern    = regexp.MustCompile(`complian|comply|conform|regulatory requirement`)
	appealPattern        = regexp.MustCompile(`appeal|tribunal|reconsideration|review board`)
	procedurePattern     = regexp.MustCompile(`procedure|process|step-by-step|how to`)

	legalRepPattern      = regexp.MustCompile(`legal representative|lawyer|counsel|solicitor`)
	authorizedRepPattern = regexp.MustCompile(`authori[zs]ed representative`)

	agentIndicatorPattern = regexp.MustCompile(`\bagents?\b|delegation|mandate|power of attorney|on behalf of|third party|representative`)
)

// NewClassifier creates a classifier with the given weights.
func NewClassifier(weights ClassifierWeights) *Classifier {
	return &Classifier{
		weights: weights,
		categories: []categoryRule{
			{CategoryAuthorization, weights.Authorization, authorizationPattern},
			{CategoryCompliance, weights.Compliance, compliancePattern},
			{CategoryAppeal, weights.Appeal, appealPattern},
			{CategoryProcedure, weights.Procedure, procedurePattern},
		},
		agentTypes: []categoryRule{
			{AgentTypeLegalRepresentative, weights.AgentType, legalRepPattern},
			{AgentTypeAuthorizedRepresentative, weights.AgentType, authorizedRepPattern},
		},
		indicators: agentIndicatorPattern,
	}
}

// Classify scores title and body and returns the relevance verdict.
// Empty input yields a not-relevant verdict with zero confidence.
func (c *Classifier) Classify(title, body string) core.Classification {
	buffer := strings.ToLower(strings.TrimSpace(title + " " + body))

	result := core.Classification{}
	if buffer == "" {
		return result
	}

	confidence := 0.0
	for _, rule := range c.categories {
		if rule.pattern.MatchString(buffer) {
			result.Categories = append(result.Categories, rule.name)
			confidence += rule.weight
		}
	}
	for _, rule := range c.agentTypes {
		if rule.pattern.MatchString(buffer) {
			result.AgentTypes = append(result.AgentTypes, rule.name)
			confidence += rule.weight
		}
	}
	// Broad indicators contribute once no matter how many matched.
	if c.indicators.MatchString(buffer) {
		confidence += c.weights.AgentIndicator
	}

	if confidence > 1.0 {
		confidence = 1.0
	}

	result.Confidence = confidence
	result.IsRelevant = confidence >= c.weights.RelevanceThreshold || len(result.Categories) >= 2
	return result
}
