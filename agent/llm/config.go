package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
	openrouterx "github.com/tanpawarit/task-planner/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// Models lists "model=tag|tag" entries in priority order.
	Models []string `envconfig:"MODELS" split_words:"true" required:"true"`

	ProbeAvailability bool          `envconfig:"PROBE_AVAILABILITY" split_words:"true" default:"true"`
	AvailabilityTTL   time.Duration `envconfig:"AVAILABILITY_TTL" split_words:"true" default:"5m"`
}

// ModelSpec is one configured model and the capability tags it serves.
type ModelSpec struct {
	Model string
	Tags  []string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	specs, err := c.ModelSpecs()
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("%w: at least one model is required", contractx.ErrValidation)
	}
	return nil
}

// ModelSpecs parses Models. An entry without tags defaults to chat only.
func (c Config) ModelSpecs() ([]ModelSpec, error) {
	specs := make([]ModelSpec, 0, len(c.Models))
	seen := make(map[string]struct{}, len(c.Models))
	for _, entry := range c.Models {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, rawTags, _ := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: model entry %q has no model name", contractx.ErrValidation, entry)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: model %q is configured twice", contractx.ErrValidation, name)
		}
		seen[name] = struct{}{}

		tags := parseTags(rawTags)
		if len(tags) == 0 {
			tags = []string{contractx.TagChat}
		}
		specs = append(specs, ModelSpec{Model: name, Tags: tags})
	}
	return specs, nil
}

func (c Config) OpenRouterFor(model string) openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func parseTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, "|") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
