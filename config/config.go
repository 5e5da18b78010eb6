package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	BlueDart  BlueDartConfig  `yaml:"bluedart"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	DartWatch DartWatchConfig `yaml:"dartwatch"`
}

type BlueDartConfig struct {
	BaseURL             string `yaml:"base_url"`
	UserAgent           string `yaml:"user_agent"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	PageCacheTTLSeconds int    `yaml:"page_cache_ttl_seconds"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	NotificationsTopicName string `yaml:"notifications_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DartWatchConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	DataFile    string `yaml:"data_file"`
	SwaggerPath string `yaml:"swagger_path"`

	// "bluedart" scrapes the live tracking page; "fake" serves deterministic
	// records for local runs without outbound traffic.
	CarrierMode string `yaml:"carrier_mode"`

	PollIntervalSeconds     int `yaml:"poll_interval_seconds"`
	FlushIntervalSeconds    int `yaml:"flush_interval_seconds"`
	CycleConcurrency        int `yaml:"cycle_concurrency"`
	FetchRateLimitPerMinute int `yaml:"fetch_rate_limit_per_minute"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
