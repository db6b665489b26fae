package ingestion

import (
	"reflect"
	"testing"
)

func TestClassifyScenario(t *testing.T) {
	classifier := NewClassifier(DefaultClassifierWeights())

	title := "Agent Authorization for Appeals"
	body := "Authorization requirements under the Employment Insurance Act, s. 29 for agents. See Smith v. Canada (AG), 2023 SST 123."

	result := classifier.Classify(title, body)

	if !result.IsRelevant {
		t.Fatal("Expected the scenario record to be relevant")
	}

	got := make(map[string]bool)
	for _, category := range result.Categories {
		got[category] = true
	}
	if !got[CategoryAuthorization] || !got[CategoryAppeal] {
		t.Fatalf("Expected categories to include authorization and appeal, got %v", result.Categories)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Fatalf("Expected confidence in (0,1], got %f", result.Confidence)
	}
}

func TestClassifyIsPure(t *testing.T) {
	classifier := NewClassifier(DefaultClassifierWeights())

	title := "Compliance Procedures for Authorized Representatives"
	body := "How to comply with regulatory requirements when acting on behalf of a client before the review board."

	first := classifier.Classify(title, body)
	second := classifier.Classify(title, body)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Expected identical verdicts, got %+v and %+v", first, second)
	}
}

func TestClassifyEmptyText(t *testing.T) {
	classifier := NewClassifier(DefaultClassifierWeights())

	result := classifier.Classify("", "")
	if result.IsRelevant {
		t.Fatal("Expected empty text to be not relevant")
	}
	if result.Confidence != 0 {
		t.Fatalf("Expected zero confidence, got %f", result.Confidence)
	}
	if len(result.Categories) != 0 || len(result.AgentTypes) != 0 {
		t.Fatalf("Expected empty sets, got %v / %v", result.Categories, result.AgentTypes)
	}
}

func TestClassifyTwoCategoriesAlwaysRelevant(t *testing.T) {
	// With weights far below the threshold, two matched categories must
	// still force relevance.
	weights := DefaultClassifierWeights()
	weights.Authorization = 0.01
	weights.Appeal = 0.01

	classifier := NewClassifier(weights)
	result := classifier.Classify("Consent and Appeals", "")

	if len(result.Categories) < 2 {
		t.Fatalf("Expected two categories, got %v", result.Categories)
	}
	if result.Confidence >= weights.RelevanceThreshold {
		t.Fatalf("Test premise broken: confidence %f reached threshold", result.Confidence)
	}
	if !result.IsRelevant {
		t.Fatal("Expected two matched categories to be relevant regardless of confidence")
	}
}

func TestClassifyConfidenceClamped(t *testing.T) {
	classifier := NewClassifier(DefaultClassifierWeights())

	// Text hitting every category, both agent types and indicators.
	body := "Authorization and consent to comply with regulatory requirements; " +
		"how to appeal before the tribunal; the procedure for a lawyer or " +
		"authorized representative acting as agent with power of attorney " +
		"on behalf of a third party under delegation and mandate."

	result := classifier.Classify("Everything", body)
	if result.Confidence != 1.0 {
		t.Fatalf("Expected confidence clamped to 1.0, got %f", result.Confidence)
	}
	if !result.IsRelevant {
		t.Fatal("Expected relevant")
	}
}

func TestClassifyAgentTypes(t *testing.T) {
	classifier := NewClassifier(DefaultClassifierWeights())

	result := classifier.Classify("", "A legal representative or authorized representative may act for the claimant.")

	got := make(map[string]bool)
	for _, agentType := range result.AgentTypes {
		got[agentType] = true
	}
	if !got[AgentTypeLegalRepresentative] || !got[AgentTypeAuthorizedRepresentative] {
		t.Fatalf("Expected both agent types, got %v", result.AgentTypes)
	}
}
