package revalidate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"dappdir/internal/metrics"
	"dappdir/internal/types"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	PathEndpoint = "/api/revalidate-path"
	TagEndpoint  = "/api/revalidate-tag"

	MsgInvalidRequest = "Invalid revalidation type or value"
	MsgNotConfigured  = "Application is not configured for revalidation."
	MsgRemoteFailed   = "Revalidation failed on frontend"
	MsgSucceeded      = "Revalidation triggered"

	maxResponseBytes = 1 << 20
)

// Config is set once at process start. Both values are required to forward anything.
type Config struct {
	FrontendURL string
	Secret      string
}

func (c Config) complete() bool {
	return c.FrontendURL != "" && c.Secret != ""
}

// Gateway forwards invalidations to the frontend: one POST per request, no retry, the transport's
// default timeout. The outcome is reported back to the caller, who may retry by hand.
type Gateway struct {
	cfg  Config
	http *http.Client
	log  logrus.FieldLogger
}

// NewGateway builds a gateway. A nil client means http.DefaultClient.
func NewGateway(cfg Config, client *http.Client, logger logrus.FieldLogger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Gateway{cfg: cfg, http: client, log: logger.WithField("component", "revalidate")}
}

// Configured reports the frontend URL (empty if unset) and whether a secret is present. The secret itself
// never leaves the gateway.
func (g *Gateway) Configured() (string, bool) {
	return g.cfg.FrontendURL, g.cfg.Secret != ""
}

// Revalidate runs one request through RECEIVED -> VALIDATED -> FORWARDED -> SUCCEEDED|FAILED.
func (g *Gateway) Revalidate(ctx context.Context, req types.RevalidateRequest) types.RevalidateResult {
	res := g.revalidate(ctx, req)
	metrics.ObserveRevalidation(kindLabel(req.Kind), res.State.String())
	entry := g.log.WithFields(logrus.Fields{
		"kind":   req.Kind,
		"value":  req.Value,
		"state":  res.State.String(),
		"status": res.StatusCode,
	})
	if res.Err != nil {
		entry.WithError(res.Err).Warn("Revalidation failed")
	} else {
		entry.Info("Revalidation triggered")
	}
	return res
}

func (g *Gateway) revalidate(ctx context.Context, req types.RevalidateRequest) types.RevalidateResult {
	// RECEIVED -> VALIDATED
	if !req.Kind.Valid() || req.Value == "" {
		return failed(http.StatusBadRequest, MsgInvalidRequest,
			types.Err(types.ErrInvalidRequest, nil, "kind %q value %q", req.Kind, req.Value))
	}
	if !g.cfg.complete() {
		return failed(http.StatusInternalServerError, MsgNotConfigured,
			types.Err(types.ErrNotConfigured, nil, "frontend URL or revalidation secret missing"))
	}

	// VALIDATED -> FORWARDED
	body, err := json.Marshal(map[string]string{
		string(req.Kind): req.Value,
		"secret":         g.cfg.Secret,
	})
	if err != nil {
		return failed(http.StatusInternalServerError, err.Error(), types.Err(types.ErrRemote, err, ""))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.FrontendURL+endpoint(req.Kind), bytes.NewReader(body))
	if err != nil {
		return failed(http.StatusInternalServerError, err.Error(), types.Err(types.ErrRemote, err, ""))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// FORWARDED -> SUCCEEDED / FAILED
	resp, err := g.http.Do(httpReq)
	if err != nil {
		return failed(http.StatusInternalServerError, err.Error(), types.Err(types.ErrRemote, err, ""))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	remoteMsg, err := readMessage(resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		msg := remoteMsg
		if msg == "" {
			msg = MsgRemoteFailed
		}
		return failed(resp.StatusCode, msg, types.Err(types.ErrRemote, nil, "frontend returned %d", resp.StatusCode))
	}
	if err != nil {
		return failed(http.StatusInternalServerError, err.Error(), types.Err(types.ErrRemote, err, "decode frontend response"))
	}
	if remoteMsg == "" {
		remoteMsg = MsgSucceeded
	}
	return types.RevalidateResult{
		State:      types.StateSucceeded,
		StatusCode: http.StatusOK,
		Message:    remoteMsg,
	}
}

// kindLabel bounds the metric label set: the kind arrives straight from the request body.
func kindLabel(kind types.RevalidateKind) string {
	if !kind.Valid() {
		return "invalid"
	}
	return string(kind)
}

func endpoint(kind types.RevalidateKind) string {
	if kind == types.RevalidatePath {
		return PathEndpoint
	}
	return TagEndpoint
}

// readMessage extracts the optional "message" field of the frontend's JSON reply. An empty body is
// not an error.
func readMessage(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return "", nil
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", errors.New("frontend returned a non-JSON response")
	}
	return out.Message, nil
}

func failed(status int, msg string, err error) types.RevalidateResult {
	return types.RevalidateResult{
		State:      types.StateFailed,
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}
