package collectorcfg

import (
    "fmt"
    "os"
    "strings"

    "gopkg.in/yaml.v3"
)

type Config struct {
    Server  ServerConfig  `yaml:"server"`
    Bus     BusConfig     `yaml:"bus"`
    Store   StoreConfig   `yaml:"store"`
    Redis   RedisConfig   `yaml:"redis"`
    CSV     CSVConfig     `yaml:"csv"`
    Alerts  AlertsConfig  `yaml:"alerts"`
    Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
    Listen string `yaml:"listen"`
}

type BusConfig struct {
    Broker          string `yaml:"broker"`
    Topic           string `yaml:"topic"`
    ClientID        string `yaml:"client_id"`
    Username        string `yaml:"username"`
    Password        string `yaml:"password"`
    QoS             int    `yaml:"qos"`
    TLS             bool   `yaml:"tls"`
    InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
    KeepAliveSec    int    `yaml:"keep_alive_sec"`
    IngestQueueSize int    `yaml:"ingest_queue_size"`
}

type StoreConfig struct {
    Enabled bool   `yaml:"enabled"`
    DSN     string `yaml:"dsn"`
    // Schema is the namespace partitions are created in.
    Schema            string `yaml:"schema"`
    PartitionPrefix   string `yaml:"partition_prefix"`
    MaxConns          int    `yaml:"max_conns"`
    ConnMaxLifetimeMs int    `yaml:"conn_max_lifetime_ms"`
}

type RedisConfig struct {
    Enabled      bool   `yaml:"enabled"`
    Addr         string `yaml:"addr"`
    Username     string `yaml:"username"`
    Password     string `yaml:"password"`
    DB           int    `yaml:"db"`
    Stream       string `yaml:"stream"`
    MaxLenApprox int64  `yaml:"maxlen_approx"`
}

type CSVConfig struct {
    Directory     string `yaml:"directory"`
    RetentionDays int    `yaml:"retention_days"`
}

type AlertsConfig struct {
    FullThreshold  float64 `yaml:"full_threshold"`
    ClearThreshold float64 `yaml:"clear_threshold"`
    Recipients     string  `yaml:"recipients"`
    SMTPServer     string  `yaml:"smtp_server"`
    SMTPPort       int     `yaml:"smtp_port"`
    SMTPUser       string  `yaml:"smtp_user"`
    SMTPPass       string  `yaml:"smtp_pass"`
}

type LoggingConfig struct {
    Level  string `yaml:"level"`
    Buffer int    `yaml:"buffer"`
    Output string `yaml:"output"`
}

// RecipientList splits the comma-separated recipients value, trimming blanks.
func (a AlertsConfig) RecipientList() []string {
    out := []string{}
    for _, r := range strings.Split(a.Recipients, ",") {
        if r = strings.TrimSpace(r); r != "" {
            out = append(out, r)
        }
    }
    return out
}

func Load(path string) (*Config, error) {
    b, err := os.ReadFile(path)
    if err != nil {
        return nil, err
    }
    var cfg Config
    if err := yaml.Unmarshal(b, &cfg); err != nil {
        return nil, err
    }
    if cfg.Server.Listen == "" {
        cfg.Server.Listen = ":7700"
    }
    if cfg.Bus.Topic == "" {
        cfg.Bus.Topic = "sensor/data"
    }
    if cfg.Bus.ClientID == "" {
        host, _ := os.Hostname()
        cfg.Bus.ClientID = "bin-collector-" + host
    }
    if cfg.Bus.QoS <= 0 {
        cfg.Bus.QoS = 1
    }
    if cfg.Bus.KeepAliveSec <= 0 {
        cfg.Bus.KeepAliveSec = 30
    }
    if cfg.Bus.IngestQueueSize <= 0 {
        cfg.Bus.IngestQueueSize = 1024
    }
    if cfg.Store.Schema == "" {
        cfg.Store.Schema = "public"
    }
    if cfg.Store.PartitionPrefix == "" {
        cfg.Store.PartitionPrefix = "bin_levels"
    }
    if cfg.CSV.Directory == "" {
        cfg.CSV.Directory = "."
    }
    if cfg.CSV.RetentionDays <= 0 {
        cfg.CSV.RetentionDays = 90
    }
    if cfg.Alerts.FullThreshold == 0 {
        cfg.Alerts.FullThreshold = 80.0
    }
    if cfg.Alerts.ClearThreshold == 0 {
        cfg.Alerts.ClearThreshold = 50.0
    }
    if cfg.Alerts.SMTPPort == 0 {
        cfg.Alerts.SMTPPort = 587
    }
    // Env overrides for secrets
    if v := os.Getenv("COLLECTOR_PG_DSN"); v != "" {
        cfg.Store.DSN = v
    }
    if v := os.Getenv("COLLECTOR_PG_DSN_FILE"); v != "" {
        if b, err := os.ReadFile(v); err == nil {
            cfg.Store.DSN = strings.TrimSpace(string(b))
        }
    }
    if v := os.Getenv("COLLECTOR_MQTT_PASSWORD"); v != "" {
        cfg.Bus.Password = v
    }
    if v := os.Getenv("COLLECTOR_REDIS_PASSWORD"); v != "" {
        cfg.Redis.Password = v
    }
    if v := os.Getenv("COLLECTOR_SMTP_PASS"); v != "" {
        cfg.Alerts.SMTPPass = v
    }
    if v := os.Getenv("COLLECTOR_SMTP_PASS_FILE"); v != "" {
        if b, err := os.ReadFile(v); err == nil {
            cfg.Alerts.SMTPPass = strings.TrimSpace(string(b))
        }
    }
    if v := os.Getenv("COLLECTOR_ALERT_RECIPIENTS"); v != "" {
        cfg.Alerts.Recipients = v
    }
    return &cfg, nil
}

func (c *Config) String() string {
    return fmt.Sprintf("broker=%s topic=%s listen=%s", c.Bus.Broker, c.Bus.Topic, c.Server.Listen)
}
