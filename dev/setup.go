package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	devenv "misattend/dev/env"
	"misattend/lib/attendstore"
	attenddb "misattend/lib/attendstore/db"

	"github.com/tcnksm/go-input"
)

const historyFile = "<dev_state>/history.db"

func CreateHistoryDB() error {
	path, err := devenv.ResolvePath(historyFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	config := attendstore.Config{File: historyFile}
	database, err := config.OpenDB()
	if err != nil {
		return err
	}
	defer database.Close()
	_, err = database.Exec(attenddb.Schema)
	return err
}

// SetupMisTests writes the live portal test config to dev/.state/mis.json5.
func SetupMisTests() error {
	path, err := devenv.GetStateFilePath("mis.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if !os.IsNotExist(err) {
		slog.Info("mis credentials have already been provided", "path", path)
		return err
	}

	ui := input.DefaultUI()
	required := &input.Options{Required: true, Loop: true}
	optional := &input.Options{Loop: true}

	var config devenv.MisTestConfig
	fields := []struct {
		query string
		dst   *string
		opts  *input.Options
	}{
		{"login url:", &config.LoginUrl, required},
		{"report url:", &config.ReportUrl, required},
		{"program id:", &config.ProgramId, required},
		{"session id:", &config.SessionId, required},
		{"cnic:", &config.Cnic, required},
		{"password:", &config.Password, &input.Options{Required: true, Loop: true, Mask: true}},
		{"chrome binary (optional):", &config.ChromeBin, optional},
	}
	for _, f := range fields {
		*f.dst, err = ui.Ask(f.query, f.opts)
		if err != nil {
			return err
		}
	}

	subjects, err := ui.Ask("subjects in column order (comma separated):", required)
	if err != nil {
		return err
	}
	for _, s := range strings.Split(subjects, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			config.Subjects = append(config.Subjects, s)
		}
	}

	cached, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, cached, 0600)
}

func PrintConfigLocations() {
	slog.Info("the live portal tests read dev/.state/mis.json5, run with -prompt to create it or look at the skipped tests in `go test -v` to see where it is expected.")
}
