package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

const chatHelp = `Commands:
  /new               start a new chat for the active role
  /edit <id> <text>  rewrite one of your messages and regenerate from there
  /history           show the active chat with message ids
  /phase [id]        show phases or switch the active phase
  /roles             list roles with their pipeline health
  /role new          create a role
  /open <roleId>     open a role's workspace
  /add <n>           add the n-th suggested candidate to the pipeline
  /export <kind>     print the shortlist, panel or offer export
  /shortcuts         list quick actions for the active phase
  /run <n>           send the n-th quick action
  /quit              leave`

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Nexus in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApplication(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			if a.worker != nil {
				a.worker.Start(ctx)
				defer a.worker.Stop()
			}

			r := &repl{app: a, out: cmd.OutOrStdout()}
			return r.run(ctx, cmd.InOrStdin())
		},
	}
}

type repl struct {
	app *application
	out io.Writer

	suggestions []models.Candidate
	shortcuts   []services.QuickAction
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.printBanner()
	r.printChat()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, color.CyanString("\nyou> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.send(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) command(ctx context.Context, line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	o := r.app.orchestrator

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		if _, err := o.StartNewSession(ctx, "", false); err != nil {
			r.printError(err)
			return false
		}
		r.printChat()
	case "/history":
		r.printChat()
	case "/edit":
		id, text, _ := strings.Cut(rest, " ")
		if id == "" || strings.TrimSpace(text) == "" {
			r.printError(errors.New("usage: /edit <id> <text>"))
			return false
		}
		r.exchange(func(onFragment services.FragmentFunc) (*services.ExchangeResult, error) {
			return o.EditAndResubmit(ctx, id, text, onFragment)
		})
	case "/phase":
		if rest == "" {
			active := o.State().ActivePhaseID
			for _, p := range models.Phases {
				marker := "  "
				if p.ID == active {
					marker = color.GreenString("▶ ")
				}
				fmt.Fprintf(r.out, "%s%s  %s\n", marker, p.ID, p.Title)
			}
			return false
		}
		if err := o.SetActivePhase(rest); err != nil {
			r.printError(err)
		}
	case "/roles":
		r.printRoles()
	case "/role":
		if rest != "new" {
			r.printError(errors.New("usage: /role new"))
			return false
		}
		if _, err := o.NewRole(ctx); err != nil {
			r.printError(err)
		}
		r.printChat()
	case "/open":
		if err := o.OpenRoleWorkspace(ctx, rest); err != nil {
			r.printError(err)
			return false
		}
		r.printChat()
	case "/add":
		r.addSuggestion(rest)
	case "/export":
		text, err := r.app.workspace.Export("", services.ExportKind(rest))
		if err != nil {
			r.printError(err)
			return false
		}
		fmt.Fprintln(r.out, text)
	case "/shortcuts":
		r.shortcuts = r.app.workspace.PhaseShortcuts()
		for i, a := range r.shortcuts {
			fmt.Fprintf(r.out, "%s %s\n", color.YellowString("[%d]", i+1), a.Label)
		}
	case "/run":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > len(r.shortcuts) {
			r.printError(errors.New("run /shortcuts first, then /run <n>"))
			return false
		}
		r.send(ctx, r.shortcuts[n-1].Prompt)
	default:
		fmt.Fprintln(r.out, chatHelp)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	r.exchange(func(onFragment services.FragmentFunc) (*services.ExchangeResult, error) {
		return r.app.orchestrator.SendMessage(ctx, text, onFragment)
	})
}

func (r *repl) exchange(run func(services.FragmentFunc) (*services.ExchangeResult, error)) {
	started := false
	result, err := run(func(_, fragment string) {
		if !started {
			fmt.Fprint(r.out, color.MagentaString("nexus> "))
			started = true
		}
		fmt.Fprint(r.out, fragment)
	})
	if started {
		fmt.Fprintln(r.out)
	}
	if err != nil {
		r.printError(err)
		return
	}
	if result.Failure != nil {
		fmt.Fprintln(r.out, color.RedString("! %s", result.Failure.Banner))
		return
	}
	if result.Reply != nil {
		r.collectSuggestions(result.Reply.Text)
	}
	if result.PhaseID != "" {
		if p, ok := models.FindPhase(result.PhaseID); ok {
			fmt.Fprintln(r.out, color.HiBlackString("· %s", p.Title))
		}
	}
}

func (r *repl) collectSuggestions(reply string) {
	r.suggestions = r.suggestions[:0]
	for _, b := range services.ParseBlocks(reply) {
		if b.Error != "" {
			fmt.Fprintln(r.out, color.RedString("! %s", b.Error))
			continue
		}
		switch b.Kind {
		case services.BlockCandidates:
			r.suggestions = append(r.suggestions, b.Candidates...)
		case services.BlockLinkedInSearch:
			fmt.Fprintln(r.out, color.BlueString("🔎 %s", b.Search.SearchURL))
		}
	}
	for i, c := range r.suggestions {
		fmt.Fprintf(r.out, "%s %s (%s) match %.0f%%\n", color.YellowString("[%d]", i+1), c.Name, c.CurrentRole, c.Match)
	}
	if len(r.suggestions) > 0 {
		fmt.Fprintln(r.out, color.HiBlackString("· /add <n> to add a candidate to the pipeline"))
	}
}

func (r *repl) addSuggestion(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(r.suggestions) {
		r.printError(errors.New("usage: /add <n> with n from the last suggestion list"))
		return
	}
	c, added, err := r.app.workspace.AddCandidateFromSuggestion("", r.suggestions[n-1])
	if err != nil {
		r.printError(err)
		return
	}
	if !added {
		fmt.Fprintln(r.out, color.HiBlackString("· %s is already in the pipeline", c.Name))
		return
	}
	fmt.Fprintln(r.out, color.GreenString("✓ %s added as %s", c.Name, c.Status))
}

func (r *repl) printBanner() {
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint("Nexus Talent ")+color.HiBlackString("v%s · /help for commands", version))
	if msg := r.app.orchestrator.LastError(); msg != "" {
		fmt.Fprintln(r.out, color.RedString("! %s", msg))
	}
}

func (r *repl) printChat() {
	s := r.app.orchestrator.State()
	chat, ok := s.ActiveChat()
	if !ok {
		fmt.Fprintln(r.out, color.HiBlackString("· no active chat, /new to start one"))
		return
	}
	role, _ := s.ActiveRole()
	fmt.Fprintln(r.out, color.New(color.Bold).Sprintf("\n%s · %s", role.DisplayTitle(models.DefaultRoleTitle), chat.Title))
	for _, m := range chat.Messages {
		who := color.MagentaString("nexus")
		if m.Sender == models.SenderUser {
			who = color.CyanString("you")
		}
		fmt.Fprintf(r.out, "%s %s> %s\n", color.HiBlackString("[%s]", m.ID), who, m.Text)
	}
}

func (r *repl) printRoles() {
	s := r.app.orchestrator.State()
	now := time.Now()
	for _, role := range s.Roles {
		sum := services.SummarizeRole(role, now)
		marker := "  "
		if role.ID == s.ActiveRoleID {
			marker = color.GreenString("▶ ")
		}
		risk := ""
		if sum.Risk != "" {
			risk = color.RedString(" ! %s", sum.Risk)
		}
		fmt.Fprintf(r.out, "%s%s  %s  %d candidates, %d active%s\n", marker, role.ID, sum.Title, sum.Total, sum.ActiveCount, risk)
	}
}

func (r *repl) printError(err error) {
	if banner := services.PreconditionBanner(err); banner != "" {
		fmt.Fprintln(r.out, color.RedString("! %s", banner))
		return
	}
	fmt.Fprintln(r.out, color.RedString("! %v", err))
}
