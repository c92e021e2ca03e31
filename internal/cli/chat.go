// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for lmchat.
//
// Provides the main interactive loop for conversing with a local Ollama
// model, with conversation management built in.
//
// Interactive Commands:
//   /help, /h           Show available commands
//   /new                Start a new conversation
//   /list               List saved conversations
//   /open N|ID          Open a saved conversation
//   /delete N|ID        Delete a saved conversation
//   /search TEXT        Search message history
//   /model [name]       Show or switch model
//   /models             List installed models
//   /think              Toggle thinking-block display
//   /export [md|json]   Export the current conversation
//   /history            Show conversation messages
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/lmchat/internal/config"
	"github.com/jeranaias/lmchat/internal/index"
	"github.com/jeranaias/lmchat/internal/model"
	"github.com/jeranaias/lmchat/internal/ollama"
	"github.com/jeranaias/lmchat/internal/session"
	"github.com/jeranaias/lmchat/internal/storage"
	"github.com/jeranaias/lmchat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.Dir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Supports history
// navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// APP
// =============================================================================

// App wires the chat REPL to the session controller and its storage.
type App struct {
	Config *config.Config
	Client *ollama.Client
	Store  *storage.Store
	Index  *index.Index
	Ctrl   *session.Controller
	Quiet  bool

	input     *ChatCLI
	printer   StreamPrinter
	showThink bool
	listIDs   []string // ids shown by the last /list, for numeric /open
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run() error {
	ctx := context.Background()
	if err := a.Client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	a.input = NewChatCLI()
	defer a.input.Close()

	if !a.Quiet {
		a.printWelcome()
	}

	useMarkdown := IsStdoutTTY()
	a.Ctrl.OnUpdate(func(conv *model.Conversation, done bool) {
		last := conv.LastMessage()
		if last == nil || last.Role != model.RoleAssistant {
			return
		}
		if !useMarkdown {
			a.printer.Print(last.Content)
		}
		if done {
			a.Index.IndexConversation(conv)
		}
	})

	// First Ctrl+C during generation cancels it; at the prompt liner
	// reports it as ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if a.Ctrl.State() == session.StateGenerating {
				a.Ctrl.Cancel()
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := a.input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed terminal all end
			// the session.
			fmt.Println()
			a.printGoodbye()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := a.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				a.printGoodbye()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			a.printGoodbye()
			return nil
		}

		if err := a.processMessage(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage submits user input and renders the streamed response.
func (a *App) processMessage(ctx context.Context, input string) error {
	useMarkdown := IsStdoutTTY()
	a.printer.Reset()
	fmt.Println()

	start := time.Now()
	if err := a.Ctrl.Submit(ctx, input); err != nil {
		if ollama.IsNotRunning(err) {
			return fmt.Errorf("cannot reach Ollama at %s: %w", a.Client.BaseURL(), err)
		}
		return err
	}

	last := a.Ctrl.Conversation().LastMessage()
	if last != nil && last.Role == model.RoleAssistant {
		if a.showThink && last.HasThinking() {
			fmt.Println(thinkingStyle.Render("[thinking]"))
			fmt.Println(thinkingStyle.Render(last.ThinkingContent))
			fmt.Println()
		}
		if useMarkdown {
			displayResponse(last.Content)
		}
	}

	fmt.Println()
	if !a.Quiet {
		fmt.Fprintf(os.Stderr, "%s %s | %s\n",
			infoStyle.Render("[Done]"),
			a.Ctrl.Model(),
			time.Since(start).Round(time.Millisecond))
	}
	fmt.Println()
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands. Returns (shouldContinue,
// error) where shouldContinue=false means exit.
func (a *App) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		a.printHelp()
		return true, nil

	case "/new", "/n":
		if err := a.Ctrl.NewConversation(); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[New conversation]"))
		return true, nil

	case "/list", "/ls":
		return true, a.listConversations()

	case "/open", "/o":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /open N|ID (run /list first)")
		}
		return true, a.openConversation(args[0])

	case "/delete", "/rm":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /delete N|ID (run /list first)")
		}
		return true, a.deleteConversation(args[0])

	case "/search":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /search TEXT")
		}
		return true, a.searchConversations(strings.Join(args, " "))

	case "/model", "/m":
		return true, a.handleModelCommand(ctx, args)

	case "/models":
		return true, a.listModels(ctx)

	case "/think", "/t":
		a.showThink = !a.showThink
		if a.showThink {
			fmt.Println(commandStyle.Render("[Thinking display on]"))
		} else {
			fmt.Println(commandStyle.Render("[Thinking display off]"))
		}
		return true, nil

	case "/export":
		format := storage.FormatMarkdown
		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "md", "markdown":
				format = storage.FormatMarkdown
			case "json":
				format = storage.FormatJSON
			default:
				return true, fmt.Errorf("unknown export format %q (md or json)", args[0])
			}
		}
		return true, a.exportConversation(format)

	case "/history":
		a.printHistory()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// resolveID turns a /list ordinal or a raw id into a conversation id.
func (a *App) resolveID(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(a.listIDs) {
			return "", fmt.Errorf("no conversation %d in the last /list", n)
		}
		return a.listIDs[n-1], nil
	}
	return arg, nil
}

func (a *App) listConversations() error {
	convs, err := a.Ctrl.List()
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println(infoStyle.Render("[No saved conversations]"))
		return nil
	}

	a.listIDs = a.listIDs[:0]
	fmt.Println()
	fmt.Println(headerStyle.Render("Saved Conversations"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	width := TerminalWidth() - 30
	for i, conv := range convs {
		a.listIDs = append(a.listIDs, conv.ID)
		marker := " "
		if conv.ID == a.Ctrl.Conversation().ID {
			marker = commandStyle.Render("*")
		}
		fmt.Printf(" %s %2d. %s  %s\n",
			marker,
			i+1,
			util.TruncateWidth(conv.GetTitle(), width),
			infoStyle.Render(conv.UpdatedAt.Format("Jan 2 15:04")))
	}
	fmt.Println()
	return nil
}

func (a *App) openConversation(arg string) error {
	id, err := a.resolveID(arg)
	if err != nil {
		return err
	}
	if err := a.Ctrl.Open(id); err != nil {
		return err
	}
	conv := a.Ctrl.Conversation()
	fmt.Printf("%s %s (%d messages)\n",
		commandStyle.Render("[Opened]"),
		conv.GetTitle(),
		conv.MessageCount())
	return nil
}

func (a *App) deleteConversation(arg string) error {
	id, err := a.resolveID(arg)
	if err != nil {
		return err
	}
	if err := a.Ctrl.Delete(id); err != nil {
		return err
	}
	a.Index.Remove(id)
	fmt.Println(commandStyle.Render("[Deleted]"))
	return nil
}

func (a *App) searchConversations(query string) error {
	results, err := a.Index.Search(query, 15)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println(infoStyle.Render("[No matches]"))
		return nil
	}

	a.listIDs = a.listIDs[:0]
	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("Matches for %q", query)))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	for i, r := range results {
		a.listIDs = append(a.listIDs, r.ConversationID)
		fmt.Printf("  %2d. %s\n      %s\n",
			i+1,
			r.Title,
			infoStyle.Render(r.Snippet))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Use /open N to open a match"))
	return nil
}

func (a *App) handleModelCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(a.Ctrl.Model()))
		return nil
	}

	name := args[0]
	listCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := a.Client.ListModels(listCtx)
	if err == nil {
		found := false
		for _, m := range models {
			if m.Name == name {
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s Model %q not installed, will attempt to use anyway\n",
				warningStyle.Render("[Warning]"), name)
		}
	}

	if err := a.Ctrl.SetModel(name); err != nil {
		return err
	}
	fmt.Printf("%s Switched to model: %s\n", commandStyle.Render("[OK]"), name)
	return nil
}

func (a *App) listModels(ctx context.Context) error {
	listCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := a.Client.ListModels(listCtx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println(infoStyle.Render("[No models installed. Try: ollama pull llama3.2]"))
		return nil
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Installed Models"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	current := a.Ctrl.Model()
	for _, m := range models {
		marker := " "
		if m.Name == current {
			marker = commandStyle.Render("*")
		}
		fmt.Printf(" %s %-40s %s\n",
			marker,
			m.Name,
			infoStyle.Render(formatSize(m.Size)))
	}
	fmt.Println()
	return nil
}

func (a *App) exportConversation(format storage.ExportFormat) error {
	conv := a.Ctrl.Conversation()
	if conv.IsEmpty() {
		return fmt.Errorf("nothing to export yet")
	}

	data, err := storage.ExportConversation(conv, format)
	if err != nil {
		return err
	}

	ext := ".md"
	if format == storage.FormatJSON {
		ext = ".json"
	}
	path := conv.ID + ext
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", commandStyle.Render("[Exported]"), path)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (a *App) printWelcome() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("lmchat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(a.Ctrl.Model()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Server:"),
		commandStyle.Render(a.Config.Server.URL))
	if n, err := a.Store.Count(); err == nil && n > 0 {
		fmt.Printf("%s %d saved conversation(s)\n",
			infoStyle.Render("History:"), n)
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func (a *App) printHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new conversation"},
		{"/list", "List saved conversations"},
		{"/open N|ID", "Open a saved conversation"},
		{"/delete N|ID", "Delete a saved conversation"},
		{"/search TEXT", "Search message history"},
		{"/model [name]", "Show or switch model"},
		{"/models", "List installed models"},
		{"/think", "Toggle thinking-block display"},
		{"/export [md|json]", "Export the current conversation"},
		{"/history", "Show conversation messages"},
		{"/quit, /q", "Exit chat"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-18s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels current generation, Ctrl+D exits"))
	fmt.Println()
}

func (a *App) printHistory() {
	conv := a.Ctrl.Conversation()
	if len(conv.Messages) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(conv.GetTitle()))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()
	width := TerminalWidth() - 15
	for i, msg := range conv.Messages {
		var role string
		switch msg.Role {
		case model.RoleUser:
			role = promptStyle.Render("You")
		case model.RoleAssistant:
			role = welcomeStyle.Render("AI")
		default:
			role = warningStyle.Render("System")
		}
		text := strings.ReplaceAll(msg.Content, "\n", " ")
		fmt.Printf("  %d. %s: %s\n", i+1, role, util.TruncateWidth(text, width))
	}
	fmt.Println()
}

func (a *App) printGoodbye() {
	if !a.Quiet {
		fmt.Println(infoStyle.Render("Goodbye!"))
	}
}

// formatSize renders a byte count in human units.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
