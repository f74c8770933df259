package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diet-coach/internal/models"
)

var (
	historyUser  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.chat.History(cmd.Context(), historyUser, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(msgs) == 0 {
			fmt.Fprintln(out, metaStyle.Render("대화 기록이 없습니다."))
			return nil
		}
		for _, m := range msgs {
			stamp := metaStyle.Render(m.CreatedAt.In(a.location()).Format("01-02 15:04"))
			if m.Role == models.RoleAssistant {
				fmt.Fprintf(out, "%s %s\n", stamp, coachStyle.Render(m.Content))
			} else {
				fmt.Fprintf(out, "%s %s\n", stamp, m.Content)
			}
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the user's conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.chat.ClearHistory(cmd.Context(), historyUser)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d개의 메시지를 삭제했습니다.\n", n)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historyUser, "user", "u", "local", "User ID")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of messages (max 50)")
	historyCmd.AddCommand(historyClearCmd)
}
