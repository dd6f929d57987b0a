package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ashureev/chorechat/internal/agent"
	"github.com/ashureev/chorechat/internal/domain"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <family.json|->",
		Short: "Store a family snapshot",
		Long: `Read a family snapshot (members, active tasks, completions, points ledger)
as JSON and replace whatever the store holds for that family. Use - to read
from stdin. --family overrides the family_id in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening family file: %w", err)
				}
				defer f.Close()
				r = f
			}

			var fc domain.FamilyContext
			if err := json.NewDecoder(r).Decode(&fc); err != nil {
				return fmt.Errorf("decoding family file: %w", err)
			}
			if opts.familyID != "" {
				fc.FamilyID = opts.familyID
			}

			repo, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.SaveFamily(cmd.Context(), &fc); err != nil {
				return fmt.Errorf("seeding family: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded family %s: %d members, %d active tasks, %d completions, %d ledger entries\n",
				fc.FamilyID, len(fc.Members), len(fc.ActiveTasks), len(fc.CompletionHistory), len(fc.PointsData))
			return nil
		},
	}
}

func newAskCmd(opts *options) *cobra.Command {
	var (
		sessionID     string
		targetDate    string
		defaultPoints int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireFamily(); err != nil {
				return err
			}
			repo, loc, err := opts.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			svc, err := opts.service(repo, loc)
			if err != nil {
				return err
			}
			resp, err := svc.Chat(cmd.Context(), agent.ChatRequest{
				Message:       strings.Join(args, " "),
				SessionID:     sessionID,
				TargetDate:    targetDate,
				DefaultPoints: defaultPoints,
				FamilyID:      opts.familyID,
			})
			if err != nil {
				return fmt.Errorf("asking assistant: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, resp)
			}
			printResponse(out, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "cli", "conversation session id")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "default due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&defaultPoints, "points", 0, "default points for new tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a family's quick stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireFamily(); err != nil {
				return err
			}
			repo, loc, err := opts.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			svc, err := opts.service(repo, loc)
			if err != nil {
				return err
			}
			stats, err := svc.QuickStats(cmd.Context(), opts.familyID)
			if err != nil {
				return fmt.Errorf("loading stats: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}
			top := stats.TopPerformer
			if top == "" {
				top = "-"
			}
			fmt.Fprintf(out, "Active tasks:        %d\n", stats.TotalActiveTasks)
			fmt.Fprintf(out, "Overdue:             %d\n", stats.OverdueTasks)
			fmt.Fprintf(out, "Completed this week: %d\n", stats.CompletedThisWeek)
			fmt.Fprintf(out, "Top performer:       %s\n", top)
			fmt.Fprintf(out, "Family points:       %d\n", stats.FamilyPoints)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print stats as JSON")
	return cmd
}

func printResponse(out io.Writer, resp *agent.ChatResponse) {
	fmt.Fprintln(out, resp.Message)
	if resp.Data != nil {
		for _, t := range resp.Data.Tasks {
			assignee := t.SuggestedAssignee
			if t.IsBonusTask {
				assignee = "bonus"
			} else if assignee == "" {
				assignee = "?"
			}
			fmt.Fprintf(out, "  - %s (%s, %d points, due %s)\n", t.Title, assignee, t.SuggestedPoints, t.SuggestedDueDate)
		}
		for _, q := range resp.Data.ClarificationQuestions {
			fmt.Fprintf(out, "  ? %s\n", q.Question)
		}
	}
	fmt.Fprintf(out, "[%s, %s, confidence %.2f]\n", resp.Intent, resp.Language, resp.Confidence)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
