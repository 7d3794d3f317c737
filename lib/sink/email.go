package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"

	"misattend/lib/reportfmt"
	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"
	"misattend/lib/timezone"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Email sends the report as a plain text table with the json report attached.
type Email struct {
	config EmailConfig
	tel    telemetry.API
}

func NewEmail(config EmailConfig, tel telemetry.API) Email {
	return Email{
		config: config,
		tel:    telemetry.NewScopedAPI("sink", tel),
	}
}

func (e Email) message(report mis.Report) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("MIS Attendance <%s>", e.config.EmailAddress)
	mail.To = e.config.To
	mail.Subject = fmt.Sprintf("Attendance %s", timezone.Now().Format("2006-01-02"))

	body := "No subjects have recorded classes yet."
	if len(report) > 0 {
		body = reportfmt.ReportText(report)
	}
	mail.Text = []byte(body + "\n")

	if report == nil {
		report = mis.Report{}
	}
	serialized, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	_, err = mail.Attach(bytes.NewReader(serialized), DefaultFile, "application/json")
	if err != nil {
		return nil, err
	}
	return mail, nil
}

func (e Email) Write(ctx context.Context, report mis.Report) error {
	_, span := tracer.Start(ctx, "Email.Write")
	defer span.End()

	if len(e.config.To) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	mail, err := e.message(report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build email")
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err = mail.Send(
		addr,
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		e.tel.ReportBroken(report_email_send, err, addr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
