package commands

import (
	"consult_flow_app_go/services"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// TriageCommands returns the offline classifier commands
func TriageCommands() []*cobra.Command {
	return []*cobra.Command{classifyCmd(), assessCmd()}
}

// narrative joins the arguments, or reads stdin when there are none
func narrative(cmd *cobra.Command, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		text = string(raw)
	}
	text = services.SanitizeNarrative(text)
	if text == "" {
		return "", errors.New("no narrative given")
	}
	return text, nil
}

func classifyCmd() *cobra.Command {
	var emotion string

	cmd := &cobra.Command{
		Use:   "classify [dream text]",
		Short: "Classify a dream narrative",
		Long: `Classify a dream narrative into needs_consultation, emotional,
sensitive_indication or khayali_nafsani. Reads stdin when no text is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := narrative(cmd, args)
			if err != nil {
				return err
			}
			result := services.ClassifyDreamContent(text, services.DreamContext{EmotionalCondition: emotion})
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&emotion, "emotion", "", "Reported emotional condition (sad, anxious, angry, calm, happy)")
	return cmd
}

func assessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess [narrative]",
		Short: "Assess a consultation narrative for risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := narrative(cmd, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), services.AssessConsultationRisk(text))
		},
	}
}
