package services

import (
	"consult_flow_app_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDreamContent(t *testing.T) {
	t.Run("Three sensitive keywords need consultation", func(t *testing.T) {
		result := ClassifyDreamContent("Saya bermimpi dikejar JIN, lalu ada santet dan darah di mana-mana", DreamContext{})
		assert.Equal(t, DreamNeedsConsultation, result.Classification)
		assert.Greater(t, result.Confidence, 0.7)
		assert.ElementsMatch(t, []string{"jin", "santet", "darah"}, result.MatchedKeywords)
		assert.Equal(t, dreamSuggestions[DreamNeedsConsultation], result.SuggestedActions)
	})

	t.Run("Two sensitive keywords are an indication", func(t *testing.T) {
		result := ClassifyDreamContent("ada jin dan darah", DreamContext{})
		assert.Equal(t, DreamSensitiveIndication, result.Classification)
		assert.Equal(t, 0.67, result.Confidence)
	})

	t.Run("Emotional keywords", func(t *testing.T) {
		result := ClassifyDreamContent("I was crying and scared and felt so lonely", DreamContext{})
		assert.Equal(t, DreamEmotional, result.Classification)
		assert.Equal(t, 0.7, result.Confidence)
	})

	t.Run("Emotional context boosts the score", func(t *testing.T) {
		text := "aku sedih dan takut"

		withoutContext := ClassifyDreamContent(text, DreamContext{})
		assert.Equal(t, DreamKhayaliNafsani, withoutContext.Classification)

		withContext := ClassifyDreamContent(text, DreamContext{EmotionalCondition: EmotionSad})
		assert.Equal(t, DreamEmotional, withContext.Classification)
		assert.Equal(t, 0.7, withContext.Confidence)

		calm := ClassifyDreamContent(text, DreamContext{EmotionalCondition: EmotionCalm})
		assert.Equal(t, DreamKhayaliNafsani, calm.Classification)
	})

	t.Run("No keywords falls back to mundane", func(t *testing.T) {
		for _, text := range []string{"", "aku bermimpi jalan-jalan ke pantai bersama keluarga"} {
			result := ClassifyDreamContent(text, DreamContext{})
			assert.Equal(t, DreamKhayaliNafsani, result.Classification)
			assert.Equal(t, 0.8, result.Confidence)
			assert.Empty(t, result.MatchedKeywords)
		}
	})

	t.Run("Every class has a suggestion", func(t *testing.T) {
		for _, class := range []DreamClass{DreamNeedsConsultation, DreamEmotional, DreamSensitiveIndication, DreamKhayaliNafsani} {
			assert.NotEmpty(t, SuggestionFor(class).Title, string(class))
		}
		assert.Equal(t, dreamSuggestions[DreamKhayaliNafsani], SuggestionFor("unknown"))
	})
}

func TestAssessConsultationRisk(t *testing.T) {
	t.Run("Empty text is low risk", func(t *testing.T) {
		result := AssessConsultationRisk("")
		assert.Equal(t, models.RiskLevelLow, result.RiskLevel)
		assert.Equal(t, 0.0, result.RiskScore)
		assert.Empty(t, result.RiskFlags)
		assert.NotNil(t, result.RiskFlags)
		assert.False(t, result.RequiresEscalation)
	})

	t.Run("Critical suicide keyword", func(t *testing.T) {
		result := AssessConsultationRisk("Sometimes I WANT TO DIE")
		assert.Equal(t, models.RiskLevelCritical, result.RiskLevel)
		assert.Equal(t, 10.0, result.RiskScore)
		assert.Equal(t, []string{FlagSuicideIdeation}, result.RiskFlags)
		assert.True(t, result.RequiresEscalation)
	})

	t.Run("Critical suicide keyword overrides a low average", func(t *testing.T) {
		// suicide 1.0*10 + trauma 0.25*7 + dissociation 0.3*6 over weight 23 -> 5.89
		result := AssessConsultationRisk("saya ingin mati, trauma lama, sering blackout")
		assert.Equal(t, models.RiskLevelCritical, result.RiskLevel)
		assert.Equal(t, 5.89, result.RiskScore)
		assert.Equal(t, []string{FlagSuicideIdeation, FlagTrauma, FlagDissociation}, result.RiskFlags)
	})

	t.Run("Moderate suicide keyword", func(t *testing.T) {
		result := AssessConsultationRisk("saya merasa putus asa")
		assert.Equal(t, models.RiskLevelMedium, result.RiskLevel)
		assert.Equal(t, 3.0, result.RiskScore)
		assert.Equal(t, 0.3, result.FamilyScores[FlagSuicideIdeation])
		assert.False(t, result.RequiresEscalation)
	})

	t.Run("Psychosis family is high", func(t *testing.T) {
		result := AssessConsultationRisk("sering halusinasi dan mendengar suara")
		assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
		assert.Equal(t, 7.0, result.RiskScore)
		assert.True(t, result.RequiresEscalation)
	})

	t.Run("Weighted average over triggered families", func(t *testing.T) {
		// (0.25*7 + 0.35*8) / 15 * 10 = 3.03
		result := AssessConsultationRisk("old trauma and a recent hallucination")
		assert.Equal(t, models.RiskLevelMedium, result.RiskLevel)
		assert.Equal(t, 3.03, result.RiskScore)
		assert.ElementsMatch(t, []string{FlagTrauma, FlagPsychosis}, result.RiskFlags)
	})

	t.Run("Substring matching inside longer words", func(t *testing.T) {
		result := AssessConsultationRisk("a traumatic week")
		assert.Equal(t, []string{FlagTrauma}, result.RiskFlags)
		assert.Equal(t, models.RiskLevelLow, result.RiskLevel)
		assert.Equal(t, 2.5, result.RiskScore)
	})
}
