package commands

import (
	"fmt"
	"os"
	"time"

	"misattend/lib/attendstore"
	"misattend/lib/browser"
	"misattend/lib/configutil"
	"misattend/lib/scrapers/mis"
	"misattend/lib/sink"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

const defaultChromeBin = "/usr/bin/google-chrome"

type CredentialsConfig struct {
	Cnic     string `json:"cnic"`
	Password string `json:"password"`
}

type TimeoutConfig struct {
	Navigation int `json:"navigation"`
	Options    int `json:"options"`
	Container  int `json:"container"`
	Table      int `json:"table"`
}

type PortalConfig struct {
	LoginUrl  string        `json:"login_url"`
	ReportUrl string        `json:"report_url"`
	ProgramId string        `json:"program_id"`
	SessionId string        `json:"session_id"`
	WaitUntil string        `json:"wait_until"`
	Selectors mis.Selectors `json:"selectors"`
	// Timeouts are in seconds.
	Timeouts TimeoutConfig `json:"timeouts"`
}

type BrowserConfig struct {
	ExecPath  string `json:"exec_path"`
	Headful   bool   `json:"headful"`
	Sandbox   bool   `json:"sandbox"`
	UserAgent string `json:"user_agent"`
}

type DebugConfig struct {
	// SnapshotDir receives the rendered report page of every run when set.
	SnapshotDir string `json:"snapshot_dir"`
}

type OutputConfig struct {
	File string `json:"file"`
}

type ServeConfig struct {
	Addr             string  `json:"addr"`
	AccessToken      string  `json:"access_token"`
	Schedule         string  `json:"schedule"`
	ScrapesPerMinute float64 `json:"scrapes_per_minute"`
}

type Config struct {
	Credentials CredentialsConfig   `json:"credentials"`
	Portal      PortalConfig        `json:"portal"`
	Layout      mis.Layout          `json:"layout"`
	Browser     BrowserConfig       `json:"browser"`
	Debug       DebugConfig         `json:"debug"`
	Output      OutputConfig        `json:"output"`
	Webhook     *sink.WebhookConfig `json:"webhook"`
	Email       *sink.EmailConfig   `json:"email"`
	History     *attendstore.Config `json:"history"`
	Serve       ServeConfig         `json:"serve"`
}

// loadConfig reads path (merged with its .local variant) and applies the
// environment overrides, credentials never have to live in a file.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		return cfg, fmt.Errorf("no config found at %s", path)
	}
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	configutil.OverrideFromEnv(&cfg.Credentials.Cnic, "MIS_CNIC")
	configutil.OverrideFromEnv(&cfg.Credentials.Password, "MIS_PASSWORD")
	configutil.OverrideFromEnv(&cfg.Browser.ExecPath, "GOOGLE_CHROME_BIN")
	if cfg.Browser.ExecPath == "" {
		if _, err := os.Stat(defaultChromeBin); err == nil {
			cfg.Browser.ExecPath = defaultChromeBin
		}
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (cfg Config) credentials() mis.Credentials {
	return mis.Credentials{
		Identifier: cfg.Credentials.Cnic,
		Secret:     cfg.Credentials.Password,
	}
}

func (cfg Config) portal() mis.Portal {
	return mis.Portal{
		LoginURL:  cfg.Portal.LoginUrl,
		ReportURL: cfg.Portal.ReportUrl,
		ProgramID: cfg.Portal.ProgramId,
		SessionID: cfg.Portal.SessionId,
		Selectors: cfg.Portal.Selectors,
		Timeouts: mis.Timeouts{
			Navigation: seconds(cfg.Portal.Timeouts.Navigation),
			Options:    seconds(cfg.Portal.Timeouts.Options),
			Container:  seconds(cfg.Portal.Timeouts.Container),
			Table:      seconds(cfg.Portal.Timeouts.Table),
		},
		Wait: browser.WaitPolicy(cfg.Portal.WaitUntil),
	}
}

func (cfg Config) launchOptions() browser.LaunchOptions {
	userAgent := cfg.Browser.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return browser.LaunchOptions{
		ExecPath:  cfg.Browser.ExecPath,
		Headless:  !cfg.Browser.Headful,
		NoSandbox: !cfg.Browser.Sandbox,
		UserAgent: userAgent,
	}
}
