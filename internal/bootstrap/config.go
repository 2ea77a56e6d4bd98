package bootstrap

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineModeLocal = "local"
	EngineModeRelay = "relay"

	CourseSourceMongo = "mongo"
	CourseSourceFile  = "file"
)

type Config struct {
	ServerPort      string        `mapstructure:"SERVER_PORT"`
	IsLocalCors     bool          `mapstructure:"LOCAL_CORS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	EngineMode      string        `mapstructure:"ENGINE_MODE"`
	EnginePath      string        `mapstructure:"ENGINE_PATH"`
	EngineArgs      string        `mapstructure:"ENGINE_ARGS"`
	EngineRelayAddr string        `mapstructure:"ENGINE_RELAY_ADDR"`
	EngineRelayPort string        `mapstructure:"ENGINE_RELAY_PORT"`
	AnalysisLines   int           `mapstructure:"ANALYSIS_LINES"`
	AnalysisDepth   int           `mapstructure:"ANALYSIS_DEPTH"`
	RedisUrl        string        `mapstructure:"REDIS_URL"`
	StudyStateTTL   time.Duration `mapstructure:"STUDY_STATE_TTL"`
	MongoUri        string        `mapstructure:"MONGO_URI"`
	MongoDatabase   string        `mapstructure:"MONGO_DATABASE"`
	CourseSource    string        `mapstructure:"COURSE_SOURCE"`
	CoursesFile     string        `mapstructure:"COURSES_FILE"`
}

var configKeys = map[string]any{
	"SERVER_PORT":       "8080",
	"LOCAL_CORS":        false,
	"LOG_LEVEL":         "info",
	"ENGINE_MODE":       EngineModeLocal,
	"ENGINE_PATH":       "stockfish",
	"ENGINE_ARGS":       "",
	"ENGINE_RELAY_ADDR": "localhost:8082",
	"ENGINE_RELAY_PORT": "8082",
	"ANALYSIS_LINES":    4,
	"ANALYSIS_DEPTH":    15,
	"REDIS_URL":         "localhost:6379",
	"STUDY_STATE_TTL":   "24h",
	"MONGO_URI":         "mongodb://localhost:27017",
	"MONGO_DATABASE":    "chess_study",
	"COURSE_SOURCE":     CourseSourceMongo,
	"COURSES_FILE":      "courses.yaml",
}

// Setup reads cfgPath (a .env file) on top of the defaults. Environment
// variables win over both; a missing file is not an error.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, def := range configKeys {
		v.SetDefault(key, def)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.EngineMode = strings.ToLower(strings.TrimSpace(cfg.EngineMode))
	cfg.CourseSource = strings.ToLower(strings.TrimSpace(cfg.CourseSource))

	return &cfg, nil
}

// EngineArgList splits ENGINE_ARGS on whitespace.
func (c Config) EngineArgList() []string {
	return strings.Fields(c.EngineArgs)
}
