package config

import (
	"errors"
	"fmt"
	"strings"
)

// EngineLocal and EngineOpenAI are the supported transcription backends.
const (
	EngineLocal  = "local"
	EngineOpenAI = "openai"
)

// ModelTiers lists the supported Whisper model tiers in ascending size order.
var ModelTiers = []string{"tiny", "base", "small", "medium", "large"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// IsModelTier reports whether value names a known Whisper model tier.
func IsModelTier(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, tier := range ModelTiers {
		if normalized == tier {
			return true
		}
	}
	return false
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < 8000 {
		return errors.New("audio.sample_rate must be at least 8000")
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	switch c.Whisper.Engine {
	case EngineLocal, EngineOpenAI:
	default:
		return fmt.Errorf("whisper.engine must be %q or %q", EngineLocal, EngineOpenAI)
	}
	if !IsModelTier(c.Whisper.Model) {
		return fmt.Errorf("whisper.model must be one of %s", strings.Join(ModelTiers, ", "))
	}
	if c.Whisper.Engine == EngineOpenAI && c.OpenAI.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("openai.api_key is required when whisper.engine is %q. Set OPENAI_API_KEY env var or edit %s (create with 'scribe config init')", EngineOpenAI, defaultPath)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
