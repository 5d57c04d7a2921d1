package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Analyze commands from stdin and print batch statistics",
	Long: `Read one command per line from stdin, analyze each, and print the
validator's running counters at the end.

  cat session-history.txt | shellsentry stats`,
	RunE: statsCommand,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsCommand(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.close()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		res := sess.validator.AnalyzeCommand(command, shellKind(), nil)
		fmt.Printf("%s %-10s %s\n", levelIcon(res.ThreatLevel), res.ThreatLevel, command)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	stats := sess.validator.GetStatistics()
	fmt.Println()
	fmt.Printf("Total analyzed:  %d\n", stats.TotalCommands)
	fmt.Printf("Blocked:         %d\n", stats.BlockedCommands)
	fmt.Printf("Avg analysis:    %.1fms\n", stats.AverageAnalysisTimeMS)
	return nil
}
