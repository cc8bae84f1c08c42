package core

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// server components.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"logging"`

	GameServer struct {
		// Port on which the game server will listen.
		Port int `mapstructure:"port"`
		// Protocol version expected from connecting clients.
		ProtocolVersion int32 `mapstructure:"protocol_version"`
		// Seed sent to every client; all clients must share one world seed.
		MapSeed int32 `mapstructure:"map_seed"`
		// Message displayed to every player after the handshake.
		WelcomeMessage string `mapstructure:"welcome_message"`
		// Prefix that marks a chat message as a command.
		CommandPrefix string `mapstructure:"command_prefix"`
		// Password for the in-game admin login command.
		AdminPassword string `mapstructure:"admin_password"`
		// Read/write deadlines applied to client sockets.
		SocketTimeout time.Duration `mapstructure:"socket_timeout"`
		// Number of in-game minutes that pass per real second.
		TimeRate int `mapstructure:"time_rate"`
	} `mapstructure:"game_server"`

	AntiCheat struct {
		// Number of recorded violations after which a player is banned.
		// Zero disables automatic bans.
		StrikesUntilBan int `mapstructure:"strikes_until_ban"`
	} `mapstructure:"anticheat"`

	Balancer BalancerConfig `mapstructure:"balancer"`

	Database struct {
		// Database engine to use; either sqlite or postgres.
		Engine string `mapstructure:"engine"`
		// Path to the database file (sqlite only).
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database for the server.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Web struct {
		// HTTP endpoint port for the read-only status API. 0 disables it.
		HTTPPort int `mapstructure:"http_port"`
	} `mapstructure:"web"`

	Bridge struct {
		// Webhook URL to which public chat and announcements are posted.
		WebhookURL string `mapstructure:"webhook_url"`
		// Webhook URL for admin-only traffic (kicks, violations).
		AdminWebhookURL string `mapstructure:"admin_webhook_url"`
	} `mapstructure:"bridge"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Log decoded packets to stdout.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

// BalancerConfig holds the combat rebalancing tunables. The maps are keyed
// by lowercased weapon kind and class names; a missing key means 1.0 for
// the damage multipliers and 0 for the stun bonuses.
type BalancerConfig struct {
	GlobalDamage float64            `mapstructure:"global_damage"`
	WeaponDamage map[string]float64 `mapstructure:"weapon_damage"`
	ClassDamage  map[string]float64 `mapstructure:"class_damage"`

	GlobalStun int            `mapstructure:"global_stun"`
	WeaponStun map[string]int `mapstructure:"weapon_stun"`
	ClassStun  map[string]int `mapstructure:"class_stun"`

	HealSelf  float64 `mapstructure:"heal_self"`
	HealOther float64 `mapstructure:"heal_other"`

	// Per equipped shield, the fraction shaved off incoming damage.
	ShieldDefense float64 `mapstructure:"shield_defense"`

	ManashieldDuration         int32   `mapstructure:"manashield_duration"`
	ManashieldCapacityAbsolute float32 `mapstructure:"manashield_capacity_absolute"`
	ManashieldCapacityRelative float32 `mapstructure:"manashield_capacity_relative"`
}

const envVarPrefix = "BRAZIER"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

func setDefaults() {
	viper.SetDefault("max_connections", 64)
	viper.SetDefault("logging.log_level", "info")
	viper.SetDefault("game_server.port", 12345)
	viper.SetDefault("game_server.protocol_version", 3)
	viper.SetDefault("game_server.command_prefix", "/")
	viper.SetDefault("game_server.socket_timeout", 5*time.Second)
	viper.SetDefault("game_server.time_rate", 100)
	viper.SetDefault("balancer.global_damage", 1.0)
	viper.SetDefault("balancer.heal_self", 1.0)
	viper.SetDefault("balancer.heal_other", 1.0)
	viper.SetDefault("balancer.manashield_duration", 5000)
	viper.SetDefault("balancer.manashield_capacity_relative", 1.0)
	viper.SetDefault("database.engine", "sqlite")
	viper.SetDefault("database.filename", "brazier.db")
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// ListenAddress returns the full address on which the game server listens.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.GameServer.Port)
}
