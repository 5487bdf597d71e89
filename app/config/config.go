package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Conversation mode: "natural" (free-form extraction) or "rigid" (fixed Q&A)
	Mode string `yaml:"mode" example:"natural" validate:"oneof=natural rigid"`
	// Company name substituted into the prompts
	Company string `yaml:"company" example:"TechSavvy Inc."`
	// Conversation language
	Lang string `yaml:"lang" example:"en" validate:"oneof=en es"`
	// Chat backend: "openai" (hosted) or "local" (ollama-style server)
	Backend string `yaml:"backend" example:"openai" validate:"oneof=openai local"`
	// Log prompts and raw model replies
	Verbose bool `yaml:"verbose" example:"false"`

	Log    Log    `yaml:"log"`
	Intake Intake `yaml:"intake"`
	Audio  Audio  `yaml:"audio"`
	OpenAI OpenAI `yaml:"openai"`
	Local  Local  `yaml:"local"`
}

type Intake struct {
	// Supervisor cadence: re-check extracted fields every N user messages
	CheckEveryNMsg int `yaml:"check_every_n_msg" example:"3" validate:"min=1"`
	// Hard ceiling on user messages per session
	MaxMessages int `yaml:"max_messages" example:"50" validate:"min=1"`
}

type Audio struct {
	// Converse by voice instead of text
	Enabled bool `yaml:"enabled" example:"false"`
	// Seconds of silence that end a recording
	SilenceDuration float64 `yaml:"silence_duration" example:"2.0"`
	// Max seconds of listening per user input
	MaxDuration int `yaml:"max_duration" example:"60"`
	// Silence threshold in dB below full scale, lower = more sensitive
	SilenceThreshold float64 `yaml:"silence_threshold" example:"5"`
}

type OpenAI struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1"`
	// API token, falls back to the OPENAI_API_KEY env var
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// Chat model
	Model string `yaml:"model" example:"gpt-4.1-nano" validate:"required"`
	// Speech-to-text model for audio mode
	TranscribeModel string `yaml:"transcribe_model" example:"whisper-1"`
	// Text-to-speech model for audio mode
	TTSModel string `yaml:"tts_model" example:"gpt-4o-mini-tts"`
	// Text-to-speech voice
	TTSVoice string `yaml:"tts_voice" example:"coral"`
}

type Local struct {
	// Ollama-style server base url
	BaseURL string `yaml:"base_url" example:"http://localhost:11434"`
	// Local model name
	Model string `yaml:"model" example:"mistral:7b-text-fp16"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.FillDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) FillDefaults() {
	if c.Mode == "" {
		c.Mode = "natural"
	}
	if c.Company == "" {
		c.Company = "ExampleCorp"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Backend == "" {
		c.Backend = "openai"
	}
	if c.Intake.CheckEveryNMsg == 0 {
		c.Intake.CheckEveryNMsg = 3
	}
	if c.Intake.MaxMessages == 0 {
		c.Intake.MaxMessages = 50
	}
	if c.Audio.SilenceDuration == 0 {
		c.Audio.SilenceDuration = 2.0
	}
	if c.Audio.MaxDuration == 0 {
		c.Audio.MaxDuration = 60
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 5
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Token == "" {
		c.OpenAI.Token = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4.1-nano"
	}
	if c.OpenAI.TranscribeModel == "" {
		c.OpenAI.TranscribeModel = "whisper-1"
	}
	if c.OpenAI.TTSModel == "" {
		c.OpenAI.TTSModel = "gpt-4o-mini-tts"
	}
	if c.OpenAI.TTSVoice == "" {
		c.OpenAI.TTSVoice = "coral"
	}
	if c.Local.BaseURL == "" {
		c.Local.BaseURL = "http://localhost:11434"
	}
	if c.Local.Model == "" {
		c.Local.Model = "mistral:7b-text-fp16"
	}
}
