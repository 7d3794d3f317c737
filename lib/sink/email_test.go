package sink

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"misattend/lib/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestEmailMessage(t *testing.T) {
	mail, err := NewEmail(EmailConfig{
		EmailAddress: "bot@example.com",
		To:           []string{"student@example.com"},
	}, telemetry.NewRecorder()).message(testReport)
	require.NoError(t, err)

	require.Equal(t, "MIS Attendance <bot@example.com>", mail.From)
	require.Equal(t, []string{"student@example.com"}, mail.To)
	require.True(t, strings.HasPrefix(mail.Subject, "Attendance "))
	require.Contains(t, string(mail.Text), "| DSS")
	require.Len(t, mail.Attachments, 1)
	require.Equal(t, DefaultFile, mail.Attachments[0].Filename)
	require.Contains(t, string(mail.Attachments[0].Content), `"subjectName": "DS-A"`)
}

func TestEmailEmptyReport(t *testing.T) {
	mail, err := NewEmail(EmailConfig{To: []string{"student@example.com"}}, telemetry.NewRecorder()).
		message(nil)
	require.NoError(t, err)
	require.Contains(t, string(mail.Text), "No subjects")
	require.Equal(t, "[]", string(mail.Attachments[0].Content))
}

func TestEmailNoRecipients(t *testing.T) {
	err := NewEmail(EmailConfig{}, telemetry.NewRecorder()).Write(context.Background(), testReport)
	require.ErrorContains(t, err, "no recipients")
}

func TestEmailSend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smtp container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	cleanup := telemetry.SetupForTesting(t, "test:sink")
	defer cleanup()

	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025/tcp"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Skipf("skipping because the smtp container could not start: %s", err.Error())
	}
	defer func() {
		err := smtp.Terminate(ctx)
		if err != nil {
			t.Fatal(err)
		}
	}()

	host, err := smtp.Host(ctx)
	require.NoError(t, err)
	port, err := smtp.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)

	tel := telemetry.NewRecorder()
	err = NewEmail(EmailConfig{
		Server:       host,
		Port:         port.Int(),
		EmailAddress: "bot@example.com",
		Password:     "default",
		To:           []string{"student@example.com"},
	}, tel).Write(ctx, testReport)
	require.NoError(t, err)
	require.Empty(t, tel.Reports("broken", report_email_send))
}
