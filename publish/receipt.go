package publish

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Receipt records where a document ended up, so an operator (or a later
// script) can find the page again without another title lookup.
type Receipt struct {
	Title       string    `yaml:"title"`
	SpaceKey    string    `yaml:"space"`
	PageID      string    `yaml:"page-id"`
	PageURL     string    `yaml:"page-url"`
	Version     int       `yaml:"version"`
	Outcome     string    `yaml:"outcome"`
	PublishedAt time.Time `yaml:"published-at"`
}

// WriteReceipt writes the receipt as YAML next to the source document.
func WriteReceipt(path string, title, spaceKey string, result *PublishResult) error {
	receipt := Receipt{
		Title:       title,
		SpaceKey:    spaceKey,
		PageID:      result.PageID,
		PageURL:     result.PageURL,
		Version:     result.Version,
		Outcome:     string(result.Outcome),
		PublishedAt: time.Now().UTC(),
	}

	raw, err := yaml.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("publish: couldn't marshal receipt: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("publish: couldn't write receipt %s: %w", path, err)
	}

	return nil
}
