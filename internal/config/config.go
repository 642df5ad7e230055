package config

import (
	"math"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval   = 2.0
	DefaultLogLevel   = "warning"
	DefaultURL        = "http://localhost:8086"
	DefaultToken      = "your-super-secret-auth-token"
	DefaultOrg        = "my-org"
	DefaultBucket     = "sensor-data"
	DefaultLocation   = "living-room"
	DefaultPin        = "GPIO4"
	DefaultSensorType = "DHT11"
	DefaultTelemetry  = "/var/lib/dhtlogger/telemetry.db"
	DefaultMQTTTopic  = "sensors/%s/dht"

	configName    = "dhtlogger"
	configType    = "toml"
	configEnv     = "DHTLOGGER_CONFIG"
	defaultSearch = "/etc"

	// Largest interval that still fits a time.Duration.
	maxIntervalSeconds = float64(math.MaxInt64) / float64(time.Second)
)

type Config struct {
	Interval  float64         `mapstructure:"interval"`
	LogLevel  string          `mapstructure:"log_level"`
	Once      bool            `mapstructure:"once"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	Sensor    SensorConfig    `mapstructure:"sensor"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type InfluxDBConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
	Verify bool   `mapstructure:"verify"`
}

type SensorConfig struct {
	Pin      string `mapstructure:"pin"`
	Type     string `mapstructure:"type"`
	Location string `mapstructure:"location"`
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PollInterval returns the configured interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// Load resolves configuration from defaults, the config file, the
// environment and args, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{searchPath: defaultSearch}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("interval", "POLL_INTERVAL", "INTERVAL"); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = strings.Replace(DefaultMQTTTopic, "%s", cfg.Sensor.Location, 1)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("once", false)
	v.SetDefault("influxdb.url", DefaultURL)
	v.SetDefault("influxdb.token", DefaultToken)
	v.SetDefault("influxdb.org", DefaultOrg)
	v.SetDefault("influxdb.bucket", DefaultBucket)
	v.SetDefault("influxdb.verify", false)
	v.SetDefault("sensor.pin", DefaultPin)
	v.SetDefault("sensor.type", DefaultSensorType)
	v.SetDefault("sensor.location", DefaultLocation)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.db", DefaultTelemetry)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", configName)
	v.SetDefault("mqtt.topic", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.String("config", "", "Path to a TOML config file")
	fs.Float64("interval", DefaultInterval, "Seconds between sensor reads")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("once", false, "Take a single reading and exit")
	fs.String("location", DefaultLocation, "Location tag written with every measurement")
	fs.String("pin", DefaultPin, "GPIO pin the sensor data line is wired to")
	fs.String("sensor-type", DefaultSensorType, "Sensor model (DHT11 or DHT22)")
	fs.String("influxdb-url", DefaultURL, "InfluxDB endpoint")
	fs.Bool("telemetry", false, "Record every poll in the local telemetry journal")

	return fs
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"interval":          "interval",
		"log_level":         "log-level",
		"once":              "once",
		"sensor.location":   "location",
		"sensor.pin":        "pin",
		"sensor.type":       "sensor-type",
		"influxdb.url":      "influxdb-url",
		"telemetry.enabled": "telemetry",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}

	return nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o *options) error {
	errFactory := errors.New()

	path := o.configPath
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path = flagPath
	}
	if path == "" {
		path = os.Getenv(configEnv)
	}

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(o.searchPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if math.IsNaN(c.Interval) || c.Interval <= 0 || c.Interval > maxIntervalSeconds {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch strings.ToUpper(c.Sensor.Type) {
	case "DHT11", "DHT22":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unsupported sensor type "+c.Sensor.Type)
	}

	required := map[string]string{
		"influxdb.url":    c.InfluxDB.URL,
		"influxdb.org":    c.InfluxDB.Org,
		"influxdb.bucket": c.InfluxDB.Bucket,
		"sensor.pin":      c.Sensor.Pin,
		"sensor.location": c.Sensor.Location,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return errFactory.WithData(errors.ErrInvalidConfig, key+" must not be empty")
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.DBPath == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "telemetry.db must not be empty")
	}

	return nil
}
