package bus

import (
    "context"
    "crypto/tls"
    "fmt"
    "net/url"
    "time"

    "github.com/eclipse/paho.golang/autopaho"
    "github.com/eclipse/paho.golang/paho"

    "github.com/example/bin-collector/internal/collectorcfg"
    "github.com/example/bin-collector/internal/logging"
    "github.com/example/bin-collector/internal/metrics"
)

// Subscriber consumes one MQTT topic and delivers raw payloads into a bounded
// ordered channel. One consumer drains it, so messages are processed serially
// and per-device ordering matches delivery order. The channel send blocks
// when the pipeline is behind: intake stalls rather than dropping, since the
// broker has already been acked at QoS 1.
type Subscriber struct {
    cfg    collectorcfg.BusConfig
    cm     *autopaho.ConnectionManager
    out    chan []byte
    events *logging.EventLogger
}

func NewSubscriber(cfg collectorcfg.BusConfig) *Subscriber {
    return &Subscriber{
        cfg:    cfg,
        out:    make(chan []byte, cfg.IngestQueueSize),
        events: logging.NewEventLogger(),
    }
}

// Messages is the ordered stream of raw payloads.
func (s *Subscriber) Messages() <-chan []byte { return s.out }

// Start connects to the broker and subscribes. Reconnects and resubscribes
// are handled by the managed connection; Start returns once the connection
// manager is running.
func (s *Subscriber) Start(ctx context.Context) error {
    u, err := url.Parse(s.cfg.Broker)
    if err != nil {
        return fmt.Errorf("parse broker url: %w", err)
    }

    ccfg := autopaho.ClientConfig{
        ServerUrls:                    []*url.URL{u},
        KeepAlive:                     uint16(s.cfg.KeepAliveSec),
        CleanStartOnInitialConnection: true,
        SessionExpiryInterval:         60,
        ConnectUsername:               s.cfg.Username,
        OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
            s.events.Infra("connect", "mqtt", "success", s.cfg.Broker)
            sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
            defer cancel()
            _, err := cm.Subscribe(sctx, &paho.Subscribe{
                Subscriptions: []paho.SubscribeOptions{
                    {Topic: s.cfg.Topic, QoS: byte(s.cfg.QoS)},
                },
            })
            if err != nil {
                s.events.Infra("subscribe", "mqtt", "failed", err.Error())
                return
            }
            s.events.Infra("subscribe", "mqtt", "success", s.cfg.Topic)
        },
        OnConnectError: func(err error) {
            s.events.Infra("connect", "mqtt", "failed", err.Error())
        },
        ClientConfig: paho.ClientConfig{
            ClientID: s.cfg.ClientID,
            OnPublishReceived: []func(paho.PublishReceived) (bool, error){
                func(pr paho.PublishReceived) (bool, error) {
                    select {
                    case s.out <- pr.Packet.Payload:
                    case <-ctx.Done():
                        metrics.IngestDropped.Inc()
                    }
                    return true, nil
                },
            },
            OnClientError: func(err error) {
                s.events.Infra("error", "mqtt", "failed", err.Error())
            },
            OnServerDisconnect: func(d *paho.Disconnect) {
                s.events.Infra("disconnect", "mqtt", "failed", fmt.Sprintf("reason code %d", d.ReasonCode))
            },
        },
    }
    if s.cfg.Password != "" {
        ccfg.ConnectPassword = []byte(s.cfg.Password)
    }
    if s.cfg.TLS {
        ccfg.TlsCfg = &tls.Config{
            MinVersion:         tls.VersionTLS12,
            InsecureSkipVerify: s.cfg.InsecureSkipVerify,
        }
    }

    cm, err := autopaho.NewConnection(ctx, ccfg)
    if err != nil {
        return err
    }
    s.cm = cm
    return nil
}

// Close disconnects cleanly from the broker.
func (s *Subscriber) Close(ctx context.Context) error {
    if s.cm == nil {
        return nil
    }
    return s.cm.Disconnect(ctx)
}
