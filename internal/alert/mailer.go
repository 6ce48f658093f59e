package alert

import (
    mail "github.com/wneessen/go-mail"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
)

// Mailer fans one notification out to every configured recipient over SMTP
// with STARTTLS. A failed recipient is logged and counted but never blocks
// delivery to the rest.
type Mailer struct {
    cfg        collectorcfg.AlertsConfig
    recipients []string
    events     *logging.EventLogger
}

func NewMailer(cfg collectorcfg.AlertsConfig) *Mailer {
    return &Mailer{
        cfg:        cfg,
        recipients: cfg.RecipientList(),
        events:     logging.NewEventLogger(),
    }
}

func (m *Mailer) Notify(subject, body string) error {
    for _, dest := range m.recipients {
        if err := m.sendOne(dest, subject, body); err != nil {
            metrics.NotifyErrors.Inc()
            m.events.Alert("notify", "failed", "", dest, err.Error())
            continue
        }
        m.events.Alert("notify", "success", "", dest, "")
    }
    return nil
}

func (m *Mailer) sendOne(dest, subject, body string) error {
    msg := mail.NewMsg()
    if err := msg.From(m.cfg.SMTPUser); err != nil {
        return err
    }
    if err := msg.To(dest); err != nil {
        return err
    }
    msg.Subject(subject)
    msg.SetBodyString(mail.TypeTextPlain, body)

    c, err := mail.NewClient(m.cfg.SMTPServer,
        mail.WithPort(m.cfg.SMTPPort),
        mail.WithSMTPAuth(mail.SMTPAuthPlain),
        mail.WithUsername(m.cfg.SMTPUser),
        mail.WithPassword(m.cfg.SMTPPass),
        mail.WithTLSPolicy(mail.TLSMandatory),
    )
    if err != nil {
        return err
    }
    defer c.Close()
    return c.DialAndSend(msg)
}
