package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/shellsentry/shellsentry/internal/approval"
	"github.com/shellsentry/shellsentry/internal/audit"
	"github.com/shellsentry/shellsentry/internal/safety"

	"github.com/spf13/cobra"
)

var (
	analyzeCwd    string
	analyzeAsRoot bool
	analyzeYes    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <command...>",
	Short: "Analyze a single shell command",
	Long: `Run the full analysis pipeline over one command and print the assessment.
High and critical results prompt for confirmation in interactive sessions.

  shellsentry analyze "curl http://example.com/install.sh | bash"
  shellsentry analyze --cwd /tmp --as-root "chmod +x payload && ./payload"`,
	Args: cobra.MinimumNArgs(1),
	RunE: analyzeCommand,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCwd, "cwd", "", "Working directory the command would run in")
	analyzeCmd.Flags().BoolVar(&analyzeAsRoot, "as-root", false, "Evaluate as if running with root privileges")
	analyzeCmd.Flags().BoolVar(&analyzeYes, "yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(analyzeCmd)
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.close()

	command := strings.Join(args, " ")
	vctx := contextFromFlags()

	res := sess.validator.AnalyzeCommand(command, shellKind(), vctx)
	printResult(command, res)

	userAction := ""
	accepted := res.Basic.Allowed
	if accepted && res.ThreatLevel >= safety.High && !analyzeYes {
		decision := approval.Ask(approval.Prompt{
			Command:     command,
			ThreatLevel: res.ThreatLevel.String(),
			Patterns:    patternStrings(res),
			Warnings:    append(res.BehavioralWarnings, res.ContextualWarnings...),
		})
		accepted = decision.Approved
		userAction = decision.UserAction
	}

	if err := sess.logger.Log(audit.Event{
		Command:        command,
		Shell:          string(shellKind()),
		ThreatLevel:    res.ThreatLevel.String(),
		Allowed:        accepted,
		Patterns:       patternStrings(res),
		Warnings:       append(res.BehavioralWarnings, res.ContextualWarnings...),
		UserAction:     userAction,
		AnalysisTimeMS: res.AnalysisTimeMS,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log write failed: %v\n", err)
	}

	if !accepted {
		os.Exit(1)
	}
	return nil
}

func contextFromFlags() *safety.ValidationContext {
	if analyzeCwd == "" && !analyzeAsRoot {
		return nil
	}
	cwd := analyzeCwd
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	return &safety.ValidationContext{
		Cwd:            cwd,
		UserPrivileges: safety.UserPrivileges{IsRoot: analyzeAsRoot},
	}
}

func printResult(command string, res safety.Result) {
	fmt.Printf("%s %s\n", levelIcon(res.ThreatLevel), command)
	fmt.Printf("  Threat level: %s\n", res.ThreatLevel)
	fmt.Printf("  Basic: %s (%s)\n", allowWord(res.Basic.Allowed), res.Basic.Explanation)

	if len(res.BehavioralPatterns) > 0 {
		fmt.Printf("  Patterns: %s\n", strings.Join(patternStrings(res), ", "))
	}
	for _, w := range res.BehavioralWarnings {
		fmt.Printf("  ! %s\n", w)
	}
	for _, w := range res.ContextualWarnings {
		fmt.Printf("  ! %s\n", w)
	}
	for _, rec := range res.Recommendations {
		fmt.Printf("  > %s\n", rec)
	}
	if res.RequiresMonitoring {
		fmt.Println("  > Monitoring required")
	}
}

func allowWord(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "blocked"
}
