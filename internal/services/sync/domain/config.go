package domain

import (
	"bytes"
	"encoding/json"
	stderrs "errors"
	"os"
	"time"

	"algoliatap/internal/core/streams"
	"algoliatap/internal/core/window"
	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/timeutil"

	"github.com/go-playground/validator/v10"
)

// Config is the resolved extraction context. It is read-only for the run's
// lifetime; every partition shares the same copy.
type Config struct {
	AppID  string `json:"application_id" validate:"required"`
	APIKey string `json:"api_key"        validate:"required"`
	Region string `json:"region"         validate:"omitempty,oneof=us eu"`

	Indices []string `json:"indices" validate:"required,min=1,dive,required"`
	Streams []string `json:"streams" validate:"omitempty,dive,required"`
	Tags    []string `json:"tags"    validate:"omitempty,dive,required"`

	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"omitempty,datetime=2006-01-02"`

	ClickAnalytics *bool `json:"include_click_analytics"`
	WindowDays     int   `json:"date_window_size" validate:"omitempty,min=1,max=30"`

	// Rewind ignores stored bookmarks and re-extracts from start_date.
	// Bookmarks still only move forward.
	Rewind bool `json:"rewind"`

	Workers    int    `json:"workers"     validate:"omitempty,min=1,max=32"`
	MaxRetries int    `json:"max_retries" validate:"omitempty,min=1,max=10"`
	UserAgent  string `json:"user_agent"`

	RequestTimeoutSec int `json:"request_timeout_seconds" validate:"omitempty,min=1,max=300"`
}

// LoadConfig reads, defaults, and validates a JSON config file
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, perr.Wrapf(err, perr.ErrorCodeConfig, "read config %s", path)
	}

	var c Config
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, perr.Wrapf(err, perr.ErrorCodeConfig, "parse config %s", path)
	}

	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ApplyDefaults fills unset fields with the documented defaults
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us"
	}
	if c.WindowDays == 0 {
		c.WindowDays = window.MaxDays
	}
	if c.ClickAnalytics == nil {
		t := true
		c.ClickAnalytics = &t
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if len(c.Streams) == 0 {
		for _, d := range streams.All() {
			c.Streams = append(c.Streams, d.Name)
		}
	}
}

// Validate checks field constraints plus the cross-field rules the struct
// tags cannot express
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if ok := stderrs.As(err, &ves); ok && len(ves) > 0 {
			fe := ves[0]
			return perr.WithField(
				perr.Configf("config field %s fails %s", fe.Field(), fe.Tag()),
				fe.Field(),
			)
		}
		return perr.Wrapf(err, perr.ErrorCodeConfig, "config validation")
	}

	for _, name := range c.Streams {
		if _, err := streams.ByName(name); err != nil {
			return perr.WithField(perr.Configf("unknown stream %q", name), "streams")
		}
	}

	start, end, err := c.Bounds(timeutil.Today())
	if err != nil {
		return err
	}
	if start.After(end) {
		return perr.Configf("start_date %s is after end_date %s", start, end)
	}
	return nil
}

// Bounds resolves the configured date range against the run day.
// start_date defaults to 30 days before the run, end_date to the run day.
func (c Config) Bounds(today timeutil.Date) (start, end timeutil.Date, err error) {
	start = today.AddDays(-30)
	if c.StartDate != "" {
		start, err = timeutil.ParseDate(c.StartDate)
		if err != nil {
			return start, end, perr.WithField(perr.Configf("bad start_date %q", c.StartDate), "start_date")
		}
	}
	end = today
	if c.EndDate != "" {
		end, err = timeutil.ParseDate(c.EndDate)
		if err != nil {
			return start, end, perr.WithField(perr.Configf("bad end_date %q", c.EndDate), "end_date")
		}
	}
	return start, end, nil
}

// Descriptors resolves the selected stream names to their descriptors
func (c Config) Descriptors() ([]streams.Descriptor, error) {
	out := make([]streams.Descriptor, 0, len(c.Streams))
	for _, name := range c.Streams {
		d, err := streams.ByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// IncludeClickAnalytics unwraps the tri-state flag (defaulted true)
func (c Config) IncludeClickAnalytics() bool {
	return c.ClickAnalytics == nil || *c.ClickAnalytics
}

// RequestTimeout converts the configured seconds to a duration, 0 when unset
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}
