package rpc

import (
	"context"
	"net/http"
	"time"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/reminder"
	"peptrack_reminders/internal/domain/schedule"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
)

// Gateway is a reminder.Gateway backed by a remote JSON-RPC server.
// It also exposes the schedule methods for CLI use.
type Gateway struct {
	client *jrpc2.Client
}

// NewGateway connects to the bridge at url (e.g. http://127.0.0.1:7420/rpc).
// The secret, when set, is sent as a bearer token. A zero timeout means none.
func NewGateway(url, secret string, timeout time.Duration) *Gateway {
	httpClient := &http.Client{Timeout: timeout}
	if secret != "" {
		httpClient.Transport = &tokenTransport{token: secret, base: http.DefaultTransport}
	}
	ch := jhttp.NewChannel(url, &jhttp.ChannelOptions{Client: httpClient})
	return &Gateway{client: jrpc2.NewClient(ch, nil)}
}

var _ reminder.Gateway = (*Gateway)(nil)

// FetchDue calls reminders.pending. Every failure is a *reminder.GatewayError.
func (g *Gateway) FetchDue(ctx context.Context) ([]reminder.Occurrence, error) {
	var res PendingResult
	if err := g.client.CallResult(ctx, MethodPendingReminders, nil, &res); err != nil {
		return nil, reminder.NewGatewayError(MethodPendingReminders, err)
	}
	return res.Reminders, nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	var res PingResult
	return g.client.CallResult(ctx, MethodPing, nil, &res)
}

func (g *Gateway) ListSchedules(ctx context.Context) ([]*schedule.DoseSchedule, error) {
	var res ScheduleListResult
	if err := g.client.CallResult(ctx, MethodListSchedules, nil, &res); err != nil {
		return nil, err
	}
	return res.Schedules, nil
}

func (g *Gateway) AddSchedule(ctx context.Context, in app.NewSchedule) (*schedule.DoseSchedule, error) {
	var res schedule.DoseSchedule
	if err := g.client.CallResult(ctx, MethodAddSchedule, in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (g *Gateway) RemoveSchedule(ctx context.Context, id string) error {
	var res EmptyResult
	return g.client.CallResult(ctx, MethodRemoveSchedule, IDParam{ID: id}, &res)
}

func (g *Gateway) SetEnabled(ctx context.Context, id string, enabled bool) (*schedule.DoseSchedule, error) {
	var res schedule.DoseSchedule
	if err := g.client.CallResult(ctx, MethodSetScheduleEnabled, SetEnabledParams{ID: id, Enabled: enabled}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close releases the client.
func (g *Gateway) Close() error {
	return g.client.Close()
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}
