package enhance

import "time"

// Config holds the settings for the image-to-image enhancement provider.
// It is designed to be embedded in YAML configuration files.
type Config struct {
	// URL is the generation endpoint.
	// Example: "https://api.stability.ai/v2beta/stable-image/generate/sd3"
	URL string `yaml:"url" json:"url"`

	// ResultURL enables asynchronous mode: the generation endpoint answers
	// with a job id and the image is polled from ResultURL + "/" + id.
	// Leave empty for providers that return the image directly.
	ResultURL string `yaml:"result_url" json:"result_url"`

	// APIKey is sent as a Bearer token. Use ${STABILITY_API_KEY} in YAML.
	APIKey string `yaml:"api_key" json:"-"`

	Prompt         string  `yaml:"prompt" json:"prompt"`
	NegativePrompt string  `yaml:"negative_prompt" json:"negative_prompt"`
	Strength       float64 `yaml:"strength" json:"strength"`
	Seed           int     `yaml:"seed" json:"seed"`
	OutputFormat   string  `yaml:"output_format" json:"output_format"`
	Mode           string  `yaml:"mode" json:"mode"`
	Model          string  `yaml:"model" json:"model"`

	// Timeout bounds a whole enhancement, polling included.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// PollInterval and MaxAttempts cap asynchronous polling.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
}

// DefaultConfig returns the Stability SD3 image-to-image settings.
func DefaultConfig() Config {
	return Config{
		URL: "https://api.stability.ai/v2beta/stable-image/generate/sd3",
		Prompt: "A professional photograph of a festive home decorated with Christmas lights, " +
			"volumetric light, glowing warm ambiance, soft light halos, light diffusion on surroundings, " +
			"crisp details, twinkling lights with subtle lens flare, soft bokeh effect in background, " +
			"35mm lens, f/2.8 aperture, long exposure, cinematic composition, golden hour fading to blue hour",
		NegativePrompt: "cgi, painting, drawing, anime, cartoon, octane render, bad photo, text, " +
			"worst quality, low quality, blurry, bad proportions, deformed, distorted, grainy, noisy, " +
			"oversaturated, overexposed",
		Strength:     0.30,
		Seed:         0,
		OutputFormat: "png",
		Mode:         "image-to-image",
		Model:        "sd3.5-medium",
		Timeout:      30 * time.Second,
		PollInterval: 2 * time.Second,
		MaxAttempts:  10,
	}
}
