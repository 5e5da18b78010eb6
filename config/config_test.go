package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
bluedart:
  base_url: "https://www.bluedart.com"
  fetch_timeout_seconds: 10
  page_cache_ttl_seconds: 60
kafka:
  host: "localhost"
  port: 9092
  notifications_topic_name: "shipment.notifications"
redis:
  host: "localhost"
  port: 6379
dartwatch:
  http_addr: ":8082"
  data_file: "tracking_data.json"
  carrier_mode: "bluedart"
  poll_interval_seconds: 300
  flush_interval_seconds: 1800
  cycle_concurrency: 4
  fetch_rate_limit_per_minute: 120
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "https://www.bluedart.com", cfg.BlueDart.BaseURL)
	require.Equal(t, 60, cfg.BlueDart.PageCacheTTLSeconds)
	require.Equal(t, "shipment.notifications", cfg.Kafka.NotificationsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8082", cfg.DartWatch.HTTPAddr)
	require.Equal(t, "tracking_data.json", cfg.DartWatch.DataFile)
	require.Equal(t, 300, cfg.DartWatch.PollIntervalSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
