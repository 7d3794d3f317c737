package devenv

// MisTestConfig is read from dev/.state/mis.json5 by the live portal tests.
type MisTestConfig struct {
	LoginUrl  string   `json:"login_url"`
	ReportUrl string   `json:"report_url"`
	ProgramId string   `json:"program_id"`
	SessionId string   `json:"session_id"`
	Cnic      string   `json:"cnic"`
	Password  string   `json:"password"`
	Subjects  []string `json:"subjects"`
	ChromeBin string   `json:"chrome_bin"`
}
