package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid config")

// DefaultQuestions is the built-in question sequence.
var DefaultQuestions = []string{
	"Question 1: What is the Earth's satellite?",
	"Question 2: What is the chemical formula of water?",
	"Question 3: Which is the largest planet in the solar system?",
}

type Config struct {
	Device struct {
		Port string
		Baud int
	}
	Quiz struct {
		Contestants   int
		Quota         int
		FirstID       int
		Questions     []string
		QuestionDelay time.Duration
		RoundPause    time.Duration
	}
	Judge struct {
		RelevanceThreshold float64
		DuplicateThreshold float64
	}
	Capture struct {
		Source   string
		URL      string
		Language string
		Timeout  time.Duration
	}
	Embedder struct {
		Kind    string
		URL     string
		Model   string
		APIKey  string
		Timeout time.Duration
		Dim     int
	}
	Server struct {
		MetricsAddr string
		GRPCAddr    string
	}
	Log struct {
		Level string
		File  string
	}
}

// Load reads defaults, an optional config file at path and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("device.baud", 9600)

	v.SetDefault("quiz.contestants", 4)
	v.SetDefault("quiz.quota", 0)
	v.SetDefault("quiz.first_id", 0)
	v.SetDefault("quiz.questions", DefaultQuestions)
	v.SetDefault("quiz.question_delay", "5s")
	v.SetDefault("quiz.round_pause", "5s")

	v.SetDefault("judge.relevance_threshold", 0.5)
	v.SetDefault("judge.duplicate_threshold", 0.8)

	v.SetDefault("capture.source", "websocket")
	v.SetDefault("capture.url", "ws://127.0.0.1:8090/capture")
	v.SetDefault("capture.language", "en-US")
	v.SetDefault("capture.timeout", "10s")

	v.SetDefault("embedder.kind", "http")
	v.SetDefault("embedder.url", "http://127.0.0.1:8091")
	v.SetDefault("embedder.model", "distiluse-base-multilingual-cased")
	v.SetDefault("embedder.timeout", "5s")
	v.SetDefault("embedder.dim", 512)

	v.SetDefault("server.metrics_addr", ":8082")
	v.SetDefault("log.level", "info")

	// Map envs
	v.BindEnv("device.port", "SERIAL_PORT")
	v.BindEnv("device.baud", "SERIAL_BAUD")
	v.BindEnv("quiz.contestants", "QUIZ_CONTESTANTS")
	v.BindEnv("capture.url", "STT_URL")
	v.BindEnv("embedder.url", "EMBEDDER_URL")
	v.BindEnv("embedder.api_key", "EMBEDDER_API_KEY")
	v.BindEnv("server.metrics_addr", "METRICS_ADDR")
	v.BindEnv("server.grpc_addr", "GRPC_ADDR")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	c.Device.Port = v.GetString("device.port")
	c.Device.Baud = v.GetInt("device.baud")

	c.Quiz.Contestants = v.GetInt("quiz.contestants")
	c.Quiz.Quota = v.GetInt("quiz.quota")
	c.Quiz.FirstID = v.GetInt("quiz.first_id")
	c.Quiz.Questions = v.GetStringSlice("quiz.questions")
	c.Quiz.QuestionDelay = v.GetDuration("quiz.question_delay")
	c.Quiz.RoundPause = v.GetDuration("quiz.round_pause")
	if c.Quiz.Quota == 0 {
		c.Quiz.Quota = c.Quiz.Contestants
	}

	c.Judge.RelevanceThreshold = v.GetFloat64("judge.relevance_threshold")
	c.Judge.DuplicateThreshold = v.GetFloat64("judge.duplicate_threshold")

	c.Capture.Source = v.GetString("capture.source")
	c.Capture.URL = v.GetString("capture.url")
	c.Capture.Language = v.GetString("capture.language")
	c.Capture.Timeout = v.GetDuration("capture.timeout")

	c.Embedder.Kind = v.GetString("embedder.kind")
	c.Embedder.URL = v.GetString("embedder.url")
	c.Embedder.Model = v.GetString("embedder.model")
	c.Embedder.APIKey = v.GetString("embedder.api_key")
	c.Embedder.Timeout = v.GetDuration("embedder.timeout")
	c.Embedder.Dim = v.GetInt("embedder.dim")

	c.Server.MetricsAddr = v.GetString("server.metrics_addr")
	c.Server.GRPCAddr = v.GetString("server.grpc_addr")

	c.Log.Level = v.GetString("log.level")
	c.Log.File = v.GetString("log.file")

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch {
	case c.Quiz.Contestants < 1:
		return fmt.Errorf("%w: quiz.contestants must be >= 1, got %d", ErrInvalid, c.Quiz.Contestants)
	case c.Quiz.Quota < 1 || c.Quiz.Quota > c.Quiz.Contestants:
		return fmt.Errorf("%w: quiz.quota must be in [1,%d], got %d", ErrInvalid, c.Quiz.Contestants, c.Quiz.Quota)
	case c.Quiz.FirstID < 0:
		return fmt.Errorf("%w: quiz.first_id must be >= 0", ErrInvalid)
	case len(c.Quiz.Questions) == 0:
		return fmt.Errorf("%w: quiz.questions is empty", ErrInvalid)
	case outOfUnit(c.Judge.RelevanceThreshold) || outOfUnit(c.Judge.DuplicateThreshold):
		return fmt.Errorf("%w: judge thresholds must be in [-1,1]", ErrInvalid)
	case c.Capture.Timeout <= 0:
		return fmt.Errorf("%w: capture.timeout must be positive", ErrInvalid)
	case c.Capture.Source != "websocket" && c.Capture.Source != "console":
		return fmt.Errorf("%w: capture.source %q", ErrInvalid, c.Capture.Source)
	case c.Embedder.Kind != "http" && c.Embedder.Kind != "local":
		return fmt.Errorf("%w: embedder.kind %q", ErrInvalid, c.Embedder.Kind)
	case c.Device.Baud <= 0:
		return fmt.Errorf("%w: device.baud must be positive", ErrInvalid)
	}
	return nil
}

func outOfUnit(f float64) bool { return f < -1 || f > 1 }
