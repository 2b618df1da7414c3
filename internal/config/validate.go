package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
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

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StoreDir) == "" {
		return errors.New("paths.store_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/roastreel/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'roastreel config init')", defaultPath)
	}
	if strings.TrimSpace(c.Gemini.BaseURL) == "" {
		return errors.New("gemini.base_url must be set")
	}
	if strings.TrimSpace(c.Gemini.ScriptModel) == "" {
		return errors.New("gemini.script_model must be set")
	}
	if strings.TrimSpace(c.Gemini.VideoModel) == "" {
		return errors.New("gemini.video_model must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"gemini.scene_count":         c.Gemini.SceneCount,
		"gemini.video_poll_interval": c.Gemini.VideoPollInterval,
		"gemini.request_timeout":     c.Gemini.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Gemini.MaxDocumentBytes <= 0 {
		return errors.New("gemini.max_document_bytes must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.VideoStageTimeout <= 0 {
		return errors.New("workflow.video_stage_timeout must be positive")
	}
	if c.Workflow.VideoStageTimeout <= c.Gemini.VideoPollInterval {
		return errors.New("workflow.video_stage_timeout must be greater than gemini.video_poll_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
