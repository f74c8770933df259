package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diet-coach/internal/chat"
	"diet-coach/internal/prompt"
)

var (
	coachStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

var (
	chatUser    string
	chatPersona string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Talk to the coach (one message, or an interactive session)",
	Long: `Send one message when arguments are given; otherwise read messages
line by line from stdin until EOF or "exit".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatPersona != "" {
			if _, ok := prompt.Lookup(chatPersona); !ok {
				return fmt.Errorf("unknown persona %q (choose from %s)", chatPersona, strings.Join(prompt.IDs(), ", "))
			}
		}
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			return sendMessage(cmd, a.chat, out, strings.Join(args, " "))
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			fmt.Fprintln(out, metaStyle.Render("무엇을 드셨나요? (종료: exit)"))
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if interactive {
				fmt.Fprint(out, "> ")
			}
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			if err := sendMessage(cmd, a.chat, out, line); err != nil {
				return err
			}
		}
	},
}

func sendMessage(cmd *cobra.Command, svc *chat.Service, out io.Writer, content string) error {
	resp, err := svc.HandleMessage(cmd.Context(), &chat.Request{UserID: chatUser, Content: content, Persona: chatPersona})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, coachStyle.Render(resp.Message))
	if resp.Action != nil {
		style := actionStyle
		if !resp.Action.Success {
			style = failedStyle
		}
		fmt.Fprintln(out, style.Render("  ["+resp.Action.Tool+"] "+firstLine(resp.Action.Message)))
	}
	fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("  intent=%s situation=%s", resp.Intent, resp.Situation)))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "User ID")
	chatCmd.Flags().StringVar(&chatPersona, "persona", "", "Coaching persona: cold, bright or strict")
}
