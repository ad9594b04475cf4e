package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

type fakeSender struct {
	name   string
	titles []string
	err    error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventArbitrage}, discardLogger())

	if err := n.Notify(context.Background(), EventDiscrepancy, "skipped", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.Notify(context.Background(), EventArbitrage, "delivered", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(s.titles) != 1 || s.titles[0] != "delivered" {
		t.Fatalf("titles = %v, want only the arbitrage event", s.titles)
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("down")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	if err == nil {
		t.Fatalf("expected combined error")
	}
	if len(good.titles) != 1 {
		t.Fatalf("good sender must still be called")
	}
}

func TestFormatDiscrepancy(t *testing.T) {
	title, msg := FormatDiscrepancy(domain.DiscrepancyResult{
		EventTitle:    "Will it rain?",
		MaxSpread:     0.07,
		SpreadPercent: 17.5,
		Confidence:    0.8,
		Markets: []domain.MarketQuote{
			{Platform: "polymarket", ExternalID: "m1", YesProbability: 0.40},
			{Platform: "kalshi", ExternalID: "RAIN-26", YesProbability: 0.47},
		},
	})

	if !strings.Contains(title, "Will it rain?") || !strings.Contains(title, "700 bps") {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(msg, "polymarket m1") || !strings.Contains(msg, "kalshi RAIN-26") {
		t.Errorf("message = %q", msg)
	}
}
