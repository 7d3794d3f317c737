package mis

import "misattend/lib/telemetry"

var tracer = telemetry.Tracer("misattend.lib.scrapers.mis")

const (
	report_navigator_login       = "navigator.login"
	report_navigator_open_report = "navigator.open-report"
	report_navigator_select      = "navigator.select"
	report_navigator_wait_table  = "navigator.wait-table"
	report_extractor_find_table  = "extractor.find-table"
	report_extractor_snapshot    = "extractor.snapshot"
	report_scrape_close          = "scrape.close"
	report_scrape_subjects       = "scrape.subjects"
)
