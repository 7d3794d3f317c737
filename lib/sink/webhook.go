package sink

import (
	"context"
	"fmt"
	"time"

	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"
	"misattend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type WebhookConfig struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	// TimeoutSeconds defaults to 30.
	TimeoutSeconds int `json:"timeout_seconds"`
	// CloudflareBypass mimics a browser tls fingerprint for endpoints behind cloudflare.
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

// Webhook posts the report envelope as json to an http endpoint.
type Webhook struct {
	url    string
	client *resty.Client
	tel    telemetry.API
}

func NewWebhook(config WebhookConfig, tel telemetry.API) Webhook {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("content-type", "application/json")
	client.SetHeaders(config.Headers)
	if config.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	scoped := telemetry.NewScopedAPI("sink", tel)
	telemetry.InstrumentResty(client, scoped)

	return Webhook{
		url:    config.Url,
		client: client,
		tel:    scoped,
	}
}

func (w Webhook) Write(ctx context.Context, report mis.Report) error {
	ctx, span := tracer.Start(ctx, "Webhook.Write")
	defer span.End()

	span.SetAttributes(attribute.String("url", w.url))

	now := timezone.Now()
	envelope := OK(report)
	envelope.Time = &now

	res, err := w.client.R().
		SetContext(ctx).
		SetBody(envelope).
		Post(w.url)
	if err != nil {
		w.tel.ReportBroken(report_webhook_post, err, w.url)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post report")
		return fmt.Errorf("webhook %s: %w", w.url, err)
	}
	if res.IsError() {
		err := fmt.Errorf("webhook %s: unexpected status %s", w.url, res.Status())
		w.tel.ReportBroken(report_webhook_post, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook rejected report")
		return err
	}
	return nil
}
