package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/forms"
	"operatorpanel/src/localstore"
	"operatorpanel/src/model"
	"operatorpanel/src/panel"
	"operatorpanel/src/poll"
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.WarnLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})

	logger.WithField("level", level.String()).
		Info("Logger initialized for operator console")
}

func printUsage() {
	fmt.Println("Available commands:")
	fmt.Println("  help                             Show this help message")
	fmt.Println("  shutdown                         Exit the console")
	fmt.Println("  login USER PASSWORD              Open a session with the engine")
	fmt.Println("  register USER PASSWORD CONFIRM   Create an operator account")
	fmt.Println("  logout                           Close the session")
	fmt.Println("  metrics                          Show the dashboard metrics snapshot")
	fmt.Println("  positions                        Show open position groups")
	fmt.Println("  keys                             List stored API keys")
	fmt.Println("  addkey NAME KEY                  Store a new API key")
	fmt.Println("  editkey ID NAME                  Rename an API key")
	fmt.Println("  delkey ID                        Delete an API key")
	fmt.Println("  logs [PAGE]                      Show a webhook log page (1-based)")
	fmt.Println("  pagesize N                       Change the log page size")
	fmt.Println("  syslogs                          Show recent engine log lines")
	fmt.Println("  config                           Show the engine configuration")
	fmt.Println("  set FIELD VALUE                  Edit one configuration field")
	fmt.Println("  addleg                           Append a DCA leg to the grid")
	fmt.Println("  rmleg INDEX                      Remove a DCA leg (0-based)")
	fmt.Println("  save                             Submit the edited configuration")
	fmt.Println()
}

func printJSON(data any) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		logger.WithError(err).Error("failed to marshal JSON for printing")
		fmt.Println("JSON error:", err)
		return
	}
	fmt.Println(string(b))
}

func printStatusLine[T any](st poll.Status[T]) {
	if st.Err != nil {
		fmt.Printf("(last sync %s, poll failing: %v)\n", st.LastSync.Format("15:04:05"), st.Err)
	} else if st.HasValue {
		fmt.Printf("(synced %s)\n", st.LastSync.Format("15:04:05"))
	} else {
		fmt.Printf("(%s)\n", st.State)
	}
}

func printPositions(groups []model.PositionGroup) {
	if len(groups) == 0 {
		fmt.Println("No open position groups.")
		return
	}
	for _, g := range groups {
		fmt.Println("------ POSITION GROUP ------")
		fmt.Printf("ID:         %d\n", g.ID)
		fmt.Printf("Pair:       %s\n", g.Pair)
		fmt.Printf("Timeframe:  %s\n", g.Timeframe)
		fmt.Printf("Status:     %s\n", g.Status)
		if g.AvgEntryPrice != nil {
			fmt.Printf("AvgEntry:   %s\n", g.AvgEntryPrice)
		}
		if g.UnrealizedPnlUsd != nil {
			fmt.Printf("PnL USD:    %s\n", g.UnrealizedPnlUsd)
		}
		fmt.Printf("TP Mode:    %s\n", g.TPMode)
		for _, pyr := range g.Pyramids {
			fmt.Printf("  Pyramid %d entry=%s legs=%d\n", pyr.ID, pyr.EntryPrice, len(pyr.DCALegs))
			for i, leg := range pyr.DCALegs {
				fmt.Printf("    leg %d gap=%s weight=%s tp=%s status=%s\n",
					i, leg.PriceGap, leg.CapitalWeight, leg.TPTarget, leg.Status)
			}
		}
		fmt.Println("----------------------------")
	}
}

// Console is the interactive operator loop over a running panel.
type Console struct {
	Panel *panel.Panel
}

func (c *Console) Start() error {
	SetupLogger()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	p := c.Panel
	if p == nil {
		built, release, err := panel.Bootstrap(ctx)
		if err != nil {
			logger.WithError(err).Error("failed to bootstrap panel")
			return err
		}
		defer release()
		p = built
	}

	reader := bufio.NewScanner(os.Stdin)
	fmt.Println("Operator console ready. Type 'help' for a list of commands. Type 'shutdown' to exit.")
	if p.Session().Authorized() {
		fmt.Println("Session restored, polling started.")
	}

	for {
		fmt.Print("panel> ")

		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				logger.WithError(err).Error("stdin scanner error")
			}
			return nil
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		logger.WithField("command_line", line).Debug("Received console command")

		switch cmd {

		case "shutdown":
			logger.Info("Shutdown command received, exiting console")
			fmt.Println("Exiting console...")
			return nil

		case "help":
			printUsage()

		case "login":
			if len(parts) < 3 {
				fmt.Println("Usage: login USER PASSWORD")
				continue
			}
			if err := p.Login(ctx, parts[1], parts[2]); err != nil {
				fmt.Println("Login failed:", err)
				continue
			}
			fmt.Println("Logged in, polling started.")

		case "register":
			if len(parts) < 4 {
				fmt.Println("Usage: register USER PASSWORD CONFIRM")
				continue
			}
			rf := forms.NewRegisterForm()
			_ = rf.Set("username", parts[1])
			_ = rf.Set("password", parts[2])
			_ = rf.Set("confirm", parts[3])
			if errs := rf.ValidateAll(); errs != nil {
				for field, err := range errs {
					fmt.Printf("  %s: %v\n", field, err)
				}
				continue
			}
			user, err := p.Register(ctx, rf.Document())
			if err != nil {
				fmt.Println("Registration failed:", err)
				continue
			}
			fmt.Printf("Account %q created, you can log in now.\n", user.Username)

		case "logout":
			p.Logout()
			fmt.Println("Logged out.")

		case "metrics":
			st := p.Metrics.Status()
			if !st.HasValue {
				fmt.Println("No metrics yet, are you logged in?")
				continue
			}
			printJSON(st.Value)
			printStatusLine(st)

		case "positions":
			st := p.Positions.Status()
			if !st.HasValue {
				fmt.Println("No positions yet, are you logged in?")
				continue
			}
			printPositions(st.Value)
			printStatusLine(st)

		case "keys":
			st := p.Keys.List()
			if !st.HasValue {
				fmt.Println("No key list yet, are you logged in?")
				continue
			}
			for _, key := range st.Value {
				fmt.Printf("  %d  %s\n", key.ID, key.Name)
			}
			for _, pending := range p.Keys.Pending() {
				fmt.Printf("  ...  %s (confirming)\n", pending.Name)
			}
			if banner := p.Keys.Banner(); banner != nil {
				fmt.Println("Last mutation failed:", banner)
				p.Keys.ClearBanner()
			}

		case "addkey":
			if len(parts) < 3 {
				fmt.Println("Usage: addkey NAME KEY")
				continue
			}
			p.Keys.InputName(ctx, parts[1])
			if err := p.Keys.AddForm.Set("key", parts[2]); err != nil {
				fmt.Println("  key:", err)
				continue
			}
			if err := p.Keys.Add(ctx); err != nil {
				fmt.Println("Add failed:", err)
				if fieldErr := p.Keys.AddForm.FieldError("name"); fieldErr != nil {
					fmt.Println("  name:", fieldErr)
				}
				continue
			}
			fmt.Println("Key stored.")

		case "editkey":
			if len(parts) < 3 {
				fmt.Println("Usage: editkey ID NAME")
				continue
			}
			rec, ok := findKey(p, parts[1])
			if !ok {
				continue
			}
			p.Keys.BeginEdit(rec)
			if err := p.Keys.EditForm.Set("name", parts[2]); err != nil {
				fmt.Println("  name:", err)
				p.Keys.Dismiss()
				continue
			}
			if err := p.Keys.SaveEdit(ctx); err != nil {
				fmt.Println("Rename failed:", err)
				p.Keys.Dismiss()
				continue
			}
			fmt.Println("Key renamed.")

		case "delkey":
			if len(parts) < 2 {
				fmt.Println("Usage: delkey ID")
				continue
			}
			rec, ok := findKey(p, parts[1])
			if !ok {
				continue
			}
			p.Keys.BeginDelete(rec)
			if err := p.Keys.ConfirmDelete(ctx); err != nil {
				fmt.Println("Delete failed:", err)
				p.Keys.Dismiss()
				continue
			}
			fmt.Println("Key deleted.")

		case "logs":
			if len(parts) > 1 {
				page, err := strconv.Atoi(parts[1])
				if err != nil || page < 1 {
					fmt.Println("Usage: logs [PAGE]")
					continue
				}
				p.WebhookLogs.SetPage(page - 1)
			}
			st := p.WebhookLogs.Status()
			if !st.HasValue {
				fmt.Println("No logs yet, are you logged in?")
				continue
			}
			for _, entry := range st.Value.Items {
				fmt.Printf("  %s  %-8s  %s\n",
					entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Status, string(entry.Payload))
			}
			fmt.Printf("Page %d of %d (%d entries total)\n",
				p.WebhookLogs.Page()+1, p.WebhookLogs.PageCount(), st.Value.Total)

		case "pagesize":
			if len(parts) < 2 {
				fmt.Println("Usage: pagesize N")
				continue
			}
			size, err := strconv.Atoi(parts[1])
			if err != nil || size < 1 {
				fmt.Println("Usage: pagesize N")
				continue
			}
			p.WebhookLogs.SetPageSize(size)
			if localstore.DB != nil {
				if err := localstore.NewPreferenceRepository().Set("log_page_size", parts[1]); err != nil {
					logger.WithError(err).Warn("could not persist page size")
				}
			}
			fmt.Printf("Page size set to %d, back on page 1.\n", size)

		case "syslogs":
			st := p.SystemLogs.Status()
			if !st.HasValue {
				fmt.Println("No engine logs yet, are you logged in?")
				continue
			}
			for _, lineItem := range st.Value {
				fmt.Println(" ", lineItem)
			}
			printStatusLine(st)

		case "config":
			if err := p.Settings.Load(ctx); err != nil {
				fmt.Println("Config fetch failed:", err)
				continue
			}
			printJSON(p.Settings.Form.Document())

		case "set":
			if len(parts) < 3 {
				fmt.Println("Usage: set FIELD VALUE  (see 'config' for field names)")
				continue
			}
			field, value := parts[1], strings.Join(parts[2:], " ")
			if err := p.Settings.Form.Set(field, value); err != nil {
				fmt.Printf("  %s: %v\n", field, err)
				continue
			}
			fmt.Printf("%s = %s (unsaved)\n", field, p.Settings.Form.Value(field))

		case "addleg":
			p.Settings.Form.AddLeg()
			fmt.Printf("Grid now has %d legs (unsaved).\n", p.Settings.Form.Legs())

		case "rmleg":
			if len(parts) < 2 {
				fmt.Println("Usage: rmleg INDEX")
				continue
			}
			index, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Usage: rmleg INDEX")
				continue
			}
			if err := p.Settings.Form.RemoveLeg(index); err != nil {
				fmt.Println("Remove failed:", err)
				continue
			}
			fmt.Printf("Grid now has %d legs (unsaved).\n", p.Settings.Form.Legs())

		case "save":
			if err := p.Settings.Save(ctx); err != nil {
				fmt.Println("Save failed:", err)
				for field, fieldErr := range p.Settings.Form.ValidateAll() {
					fmt.Printf("  %s: %v\n", field, fieldErr)
				}
				continue
			}
			fmt.Println("Configuration saved.")

		default:
			fmt.Printf("Unknown command %q\n", cmd)
			printUsage()
		}
	}
}

func findKey(p *panel.Panel, rawID string) (model.ApiKey, bool) {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		fmt.Println("Invalid key id:", rawID)
		return model.ApiKey{}, false
	}
	for _, key := range p.Keys.List().Value {
		if key.ID == uint(id) {
			return key, true
		}
	}
	fmt.Printf("No key with id %d in the current list.\n", id)
	return model.ApiKey{}, false
}
