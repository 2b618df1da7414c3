package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"roastreel/internal/api"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List pipeline sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			client := newDaemonClient(address)
			sessions, err := client.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions.")
				return nil
			}

			titler := cases.Title(language.English)
			rows := make([][]string, 0, len(sessions))
			for _, sess := range sessions {
				rows = append(rows, []string{
					shortID(sess.ID),
					sess.Stage,
					candidateLabel(sess, titler),
					strconv.Itoa(len(sess.Videos)),
					strconv.Itoa(countSelected(sess)),
					sess.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Stage", "Candidate", "Clips", "Selected", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func candidateLabel(sess api.SessionView, titler cases.Caser) string {
	if sess.Profile == nil {
		return "-"
	}
	label := strings.TrimSpace(sess.Profile.Name)
	if industry := strings.TrimSpace(sess.Profile.Industry); industry != "" {
		label = fmt.Sprintf("%s (%s)", label, titler.String(industry))
	}
	return label
}

func countSelected(sess api.SessionView) int {
	count := 0
	for _, video := range sess.Videos {
		if video.Selected {
			count++
		}
	}
	return count
}
