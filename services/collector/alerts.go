package collector

import (
	"fmt"
	"net/smtp"

	"nepwatch-backend/lib/timezone"

	"github.com/jordan-wright/email"
)

type AlertConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
	// consecutive failed cycles before a single alert fires
	Threshold int `json:"threshold"`
}

// Alerter emails the operator when the collector has failed Threshold
// cycles in a row. It fires exactly once per streak; a successful cycle
// rearms it.
type Alerter struct {
	cfg AlertConfig
}

func NewAlerter(cfg AlertConfig) *Alerter {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10
	}
	return &Alerter{cfg: cfg}
}

func (a *Alerter) SendFailureAlert(streak int, lastErr error) error {
	e := email.NewEmail()
	e.From = a.cfg.EmailAddress
	e.To = a.cfg.To
	e.Subject = fmt.Sprintf("nepwatch: %d consecutive collection failures", streak)
	e.Text = []byte(fmt.Sprintf(
		"The collector has failed %d cycles in a row.\n\nLast error: %v\n\nTime: %s\n",
		streak, lastErr, timezone.Now().Format(timezone.Format),
	))

	addr := fmt.Sprintf("%s:%d", a.cfg.Server, a.cfg.Port)
	auth := smtp.PlainAuth("", a.cfg.EmailAddress, a.cfg.Password, a.cfg.Server)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("sending alert email: %w", err)
	}
	return nil
}
