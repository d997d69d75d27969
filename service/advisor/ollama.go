package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/service/config"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

const tracerName = "github.com/khaledhikmat/ecovision-go/service/advisor"

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error"`
}

type ollamaService struct {
	baseURL string
	model   string
	client  HTTPClient
	tracer  trace.Tracer
}

// NewOllama talks to an Ollama server's /api/chat endpoint.
func NewOllama(cfgSvc config.IService) IService {
	return NewOllamaWithClient(cfgSvc.GetAdvisorURL(), cfgSvc.GetAdvisorModel(), &http.Client{
		Timeout: time.Duration(cfgSvc.GetAdvisorTimeout()) * time.Second,
	})
}

func NewOllamaWithClient(baseURL, model string, client HTTPClient) IService {
	return &ollamaService{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		tracer:  otel.Tracer(tracerName),
	}
}

func prompt(subject string) string {
	return fmt.Sprintf("I have a object detected as: '%s'. "+
		"1. Is it recyclable? (Yes/No) "+
		"2. If yes, give me ONE creative DIY project idea. "+
		"3. If no, give me safe disposal instructions. "+
		"Keep the response short and friendly.", subject)
}

func (svc *ollamaService) Advise(ctx context.Context, subject string) (string, error) {
	ctx, span := svc.tracer.Start(ctx, "advisor.advise",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("advisor.model", svc.model),
			attribute.String("advisor.subject", subject),
		),
	)
	defer span.End()

	lgr.Logger.Debug("asking advisor",
		slog.String("subject", subject),
		slog.String("model", svc.model),
	)

	text, err := svc.chat(ctx, subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", xerrors.Errorf("error connecting to advisor (ensure the server is running and model '%s' is pulled): %w", svc.model, err)
	}

	span.SetAttributes(attribute.Int("advisor.response_length", len(text)))
	return text, nil
}

func (svc *ollamaService) chat(ctx context.Context, subject string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: svc.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt(subject)},
		},
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", xerrors.Errorf("advisor returned status %d", resp.StatusCode)
		}
		return "", xerrors.Errorf("error decoding advisor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", xerrors.Errorf("advisor returned status %d: %s", resp.StatusCode, out.Error)
	}

	return out.Message.Content, nil
}
