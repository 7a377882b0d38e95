package main

import (
	"os"

	configlibsql "gymwatch-backend/lib/configutil/libsql"
	"gymwatch-backend/services/scan"
)

type BookingConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// direct path of the facility's booking page, skips the facility
	// search when set
	BookPath string `json:"book_path"`
	Facility string `json:"facility"`
}

type WindowConfig struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type ScanConfig struct {
	DurationLabel string         `json:"duration_label"`
	Windows       []WindowConfig `json:"windows"`
	HorizonDays   int            `json:"horizon_days"`
	Attempts      int            `json:"attempts"`
	// cron spec, evaluated in the site's timezone
	Schedule  string `json:"schedule"`
	ReportDir string `json:"report_dir"`
}

type WebhookConfig struct {
	Url string `json:"url"`
}

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
	Subject      string   `json:"subject"`
}

type Config struct {
	Booking  BookingConfig       `json:"booking"`
	Scan     ScanConfig          `json:"scan"`
	Database configlibsql.Struct `json:"database"`
	Webhook  WebhookConfig       `json:"webhook"`
	Email    EmailConfig         `json:"email"`
}

func (w WindowConfig) toTarget() (scan.TargetWindow, error) {
	weekday, err := scan.ParseWeekday(w.Weekday)
	if err != nil {
		return scan.TargetWindow{}, err
	}
	return scan.TargetWindow{Weekday: weekday, Start: w.Start, End: w.End}, nil
}

func targetWindows(config ScanConfig) ([]scan.TargetWindow, error) {
	windows := make([]scan.TargetWindow, len(config.Windows))
	for i, w := range config.Windows {
		target, err := w.toTarget()
		if err != nil {
			return nil, err
		}
		windows[i] = target
	}
	return windows, nil
}

// secrets may come from the environment (or a .env file) instead of
// sitting in config.json5
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("GYMWATCH_USERNAME"); v != "" {
		config.Booking.Username = v
	}
	if v := os.Getenv("GYMWATCH_PASSWORD"); v != "" {
		config.Booking.Password = v
	}
	if v := os.Getenv("GYMWATCH_WEBHOOK_URL"); v != "" {
		config.Webhook.Url = v
	}
	if v := os.Getenv("GYMWATCH_SMTP_PASSWORD"); v != "" {
		config.Email.Password = v
	}
}
