// Package timetool provides clock tools for agents.
package timetool

import (
	"context"
	"fmt"
	"time"

	"github.com/skosovsky/inlinecall"
)

// Option configures the toolkit.
type Option func(*config)

type config struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

type nowArgs struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"IANA time zone name, e.g. Europe/Berlin; empty for UTC"`
}

type diffArgs struct {
	From string `json:"from" jsonschema:"Start time in RFC 3339"`
	To   string `json:"to" jsonschema:"End time in RFC 3339"`
}

// Tools returns current_time and time_between.
func Tools(opts ...Option) ([]inlinecall.Tool, error) {
	cfg := config{now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	now, err := inlinecall.NewTool("current_time", "Current date and time in a time zone (RFC 3339)",
		func(_ context.Context, a nowArgs) (string, error) {
			loc := time.UTC
			if a.Timezone != "" {
				l, err := time.LoadLocation(a.Timezone)
				if err != nil {
					return "", &inlinecall.ClientError{Reason: fmt.Sprintf("unknown time zone %q", a.Timezone)}
				}
				loc = l
			}
			return cfg.now().In(loc).Format(time.RFC3339), nil
		})
	if err != nil {
		return nil, err
	}
	between, err := inlinecall.NewTool("time_between", "Duration between two RFC 3339 times",
		func(_ context.Context, a diffArgs) (string, error) {
			from, err := time.Parse(time.RFC3339, a.From)
			if err != nil {
				return "", &inlinecall.ClientError{Reason: "from: " + err.Error()}
			}
			to, err := time.Parse(time.RFC3339, a.To)
			if err != nil {
				return "", &inlinecall.ClientError{Reason: "to: " + err.Error()}
			}
			return to.Sub(from).String(), nil
		})
	if err != nil {
		return nil, err
	}
	return []inlinecall.Tool{now, between}, nil
}
