package services

import (
	"consult_flow_app_go/models"
	"fmt"
	"math"
	"strings"
)

// DreamClass is the outcome of dream content classification
type DreamClass string

const (
	DreamNeedsConsultation   DreamClass = "needs_consultation"
	DreamEmotional           DreamClass = "emotional"
	DreamSensitiveIndication DreamClass = "sensitive_indication"
	DreamKhayaliNafsani      DreamClass = "khayali_nafsani"
)

// Emotional conditions reported by the user alongside a dream entry
const (
	EmotionSad     = "sad"
	EmotionAnxious = "anxious"
	EmotionAngry   = "angry"
	EmotionCalm    = "calm"
	EmotionHappy   = "happy"
)

// Risk indicator families
const (
	FlagSuicideIdeation = "suicide_ideation"
	FlagPsychosis       = "psychosis"
	FlagTrauma          = "trauma"
	FlagDissociation    = "dissociation"
	FlagDelusion        = "delusion"
)

const (
	mundaneDreamConfidence = 0.8
	emotionalContextBoost  = 0.2
)

var sensitiveDreamKeywords = []string{
	"jin", "setan", "sihir", "santet", "guna-guna", "kesurupan", "kerasukan", "ruqyah",
	"pocong", "kuntilanak", "genderuwo", "demon", "possessed", "witchcraft",
	"trauma", "pelecehan", "kekerasan", "abuse", "bunuh diri", "suicide",
	"kematian", "mayat", "darah", "kubur",
}

var emotionalDreamKeywords = []string{
	"sedih", "takut", "cemas", "marah", "menangis", "kecewa", "gelisah", "kesepian",
	"sad", "afraid", "anxious", "angry", "crying", "lonely", "scared", "panic",
}

// riskFamily scores one indicator family from keyword hits
type riskFamily struct {
	flag       string
	weight     float64
	keywords   []string
	multiplier float64
	cap        float64
}

var suicideCriticalKeywords = []string{
	"bunuh diri", "ingin mati", "mengakhiri hidup", "akhiri hidupku",
	"suicide", "kill myself", "end my life", "want to die",
}

var suicideModerateKeywords = []string{
	"putus asa", "tidak ada harapan", "lelah hidup", "menyakiti diri", "tidak berguna",
	"hopeless", "worthless", "no reason to live", "self harm", "hurt myself",
}

const (
	suicideWeight             = 10
	suicideModerateMultiplier = 0.3
	suicideModerateCap        = 0.8
)

var riskFamilies = []riskFamily{
	{
		flag:       FlagPsychosis,
		weight:     8,
		keywords:   []string{"halusinasi", "mendengar suara", "melihat bayangan", "bisikan", "hallucination", "hearing voices", "seeing things"},
		multiplier: 0.35,
		cap:        1.0,
	},
	{
		flag:       FlagTrauma,
		weight:     7,
		keywords:   []string{"trauma", "pelecehan", "kekerasan", "diperkosa", "mimpi buruk", "abuse", "assault", "flashback", "nightmare"},
		multiplier: 0.25,
		cap:        0.9,
	},
	{
		flag:       FlagDissociation,
		weight:     6,
		keywords:   []string{"kesurupan", "kerasukan", "tidak sadar", "lupa ingatan", "dissociat", "out of body", "blackout"},
		multiplier: 0.3,
		cap:        0.9,
	},
	{
		flag:       FlagDelusion,
		weight:     7,
		keywords:   []string{"dimata-matai", "diikuti orang", "diguna-guna", "disantet", "being watched", "conspiracy", "chosen one", "paranoid"},
		multiplier: 0.3,
		cap:        1.0,
	},
}

// Overall risk thresholds on the 0-10 scale
const (
	riskCriticalThreshold     = 8.0
	riskHighThreshold         = 6.0
	riskMediumThreshold       = 3.0
	suicideCriticalOverride   = 0.7
	riskScoreScale            = 10.0
	sensitiveNormalizer       = 3.0
	emotionalNormalizer       = 4.0
	emotionalBaseCap          = 0.7
	needsConsultationMinScore = 0.7
	emotionalMinScore         = 0.6
	sensitiveIndicationMin    = 0.4
)

// ActionSuggestion is the fixed guidance shown for a dream classification
type ActionSuggestion struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}

var dreamSuggestions = map[DreamClass]ActionSuggestion{
	DreamNeedsConsultation: {
		Title:   "Konsultasi Disarankan",
		Message: "Mimpi Anda mengandung beberapa unsur yang sebaiknya dibicarakan dengan konsultan.",
		Actions: []string{"book_consultation", "contact_expert", "save_journal"},
	},
	DreamEmotional: {
		Title:   "Mimpi Emosional",
		Message: "Mimpi ini tampaknya mencerminkan perasaan yang sedang Anda alami.",
		Actions: []string{"emotional_checkin", "breathing_exercise", "save_journal"},
	},
	DreamSensitiveIndication: {
		Title:   "Perlu Diperhatikan",
		Message: "Ada beberapa indikasi sensitif. Pantau mimpi berikutnya dan pertimbangkan konsultasi.",
		Actions: []string{"monitor_dreams", "read_guidance", "book_consultation"},
	},
	DreamKhayaliNafsani: {
		Title:   "Mimpi Biasa",
		Message: "Mimpi ini kemungkinan berasal dari pikiran sehari-hari dan tidak memerlukan tindakan khusus.",
		Actions: []string{"save_journal"},
	},
}

// SuggestionFor returns the suggestion payload of a classification
func SuggestionFor(class DreamClass) ActionSuggestion {
	s, ok := dreamSuggestions[class]
	if !ok {
		return dreamSuggestions[DreamKhayaliNafsani]
	}
	return s
}

// DreamContext is optional structured input captured with a dream entry
type DreamContext struct {
	EmotionalCondition string `json:"emotional_condition,omitempty"`
}

// DreamClassification is the result of ClassifyDreamContent
type DreamClassification struct {
	Classification   DreamClass       `json:"classification"`
	Confidence       float64          `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
	SuggestedActions ActionSuggestion `json:"suggested_actions"`
	MatchedKeywords  []string         `json:"matched_keywords"`
}

// RiskAssessment is the result of AssessConsultationRisk
type RiskAssessment struct {
	RiskLevel          models.RiskLevel   `json:"risk_level"`
	RiskFlags          []string           `json:"risk_flags"`
	RequiresEscalation bool               `json:"requires_escalation"`
	RiskScore          float64            `json:"risk_score"`
	FamilyScores       map[string]float64 `json:"family_scores,omitempty"`
}

// matchKeywords returns the distinct keywords contained in text.
// Matching is plain substring containment, so a keyword inside a longer word still matches.
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ClassifyDreamContent maps a dream journal entry to a classification
func ClassifyDreamContent(content string, ctx DreamContext) DreamClassification {
	text := strings.ToLower(content)

	sensitiveHits := matchKeywords(text, sensitiveDreamKeywords)
	sensitiveScore := math.Min(float64(len(sensitiveHits))/sensitiveNormalizer, 1.0)

	if sensitiveScore > needsConsultationMinScore {
		return newDreamClassification(DreamNeedsConsultation, sensitiveScore,
			fmt.Sprintf("Found %d sensitive indicators in the dream narrative", len(sensitiveHits)), sensitiveHits)
	}

	emotionalHits := matchKeywords(text, emotionalDreamKeywords)
	emotionalScore := math.Min(float64(len(emotionalHits))/emotionalNormalizer, emotionalBaseCap)
	switch ctx.EmotionalCondition {
	case EmotionSad, EmotionAnxious, EmotionAngry:
		emotionalScore = math.Min(emotionalScore+emotionalContextBoost, 1.0)
	}

	if emotionalScore > emotionalMinScore {
		return newDreamClassification(DreamEmotional, emotionalScore,
			fmt.Sprintf("Found %d emotional indicators (reported condition: %s)", len(emotionalHits), emptyAs(ctx.EmotionalCondition, "none")), emotionalHits)
	}

	if sensitiveScore > sensitiveIndicationMin {
		return newDreamClassification(DreamSensitiveIndication, sensitiveScore,
			fmt.Sprintf("Found %d sensitive indicators, below the consultation threshold", len(sensitiveHits)), sensitiveHits)
	}

	return newDreamClassification(DreamKhayaliNafsani, mundaneDreamConfidence,
		"No significant sensitive or emotional indicators found", nil)
}

func newDreamClassification(class DreamClass, confidence float64, reasoning string, matched []string) DreamClassification {
	if matched == nil {
		matched = []string{}
	}
	return DreamClassification{
		Classification:   class,
		Confidence:       roundTo(confidence, 2),
		Reasoning:        reasoning,
		SuggestedActions: SuggestionFor(class),
		MatchedKeywords:  matched,
	}
}

// AssessConsultationRisk scores a consultation narrative across five indicator families
func AssessConsultationRisk(content string) RiskAssessment {
	text := strings.ToLower(content)
	scores := make(map[string]float64)

	var suicideScore float64
	if len(matchKeywords(text, suicideCriticalKeywords)) > 0 {
		suicideScore = 1.0
	} else if n := len(matchKeywords(text, suicideModerateKeywords)); n > 0 {
		suicideScore = math.Min(float64(n)*suicideModerateMultiplier, suicideModerateCap)
	}

	// Weighted average over triggered families only
	flags := []string{}
	var weighted, totalWeight float64
	if suicideScore > 0 {
		scores[FlagSuicideIdeation] = roundTo(suicideScore, 2)
		flags = append(flags, FlagSuicideIdeation)
		weighted += suicideScore * suicideWeight
		totalWeight += suicideWeight
	}
	for _, family := range riskFamilies {
		n := len(matchKeywords(text, family.keywords))
		if n == 0 {
			continue
		}
		score := math.Min(float64(n)*family.multiplier, family.cap)
		scores[family.flag] = roundTo(score, 2)
		flags = append(flags, family.flag)
		weighted += score * family.weight
		totalWeight += family.weight
	}

	var overall float64
	if totalWeight > 0 {
		overall = roundTo(weighted/totalWeight*riskScoreScale, 2)
	}

	level := models.RiskLevelLow
	switch {
	case overall >= riskCriticalThreshold || suicideScore > suicideCriticalOverride:
		level = models.RiskLevelCritical
	case overall >= riskHighThreshold:
		level = models.RiskLevelHigh
	case overall >= riskMediumThreshold:
		level = models.RiskLevelMedium
	}

	return RiskAssessment{
		RiskLevel:          level,
		RiskFlags:          flags,
		RequiresEscalation: level == models.RiskLevelCritical || level == models.RiskLevelHigh,
		RiskScore:          overall,
		FamilyScores:       scores,
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func emptyAs(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
