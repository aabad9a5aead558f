package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestWriteReceipt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.published.yaml")

	result := &PublishResult{
		Outcome: OutcomeUpdated,
		PageID:  "18350081",
		PageURL: "https://wiki.example.com/pages/viewpage.action?pageId=18350081",
		Version: 5,
	}

	if err := WriteReceipt(path, "Publishing Guide", "DOC", result); err != nil {
		t.Fatalf("WriteReceipt: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read receipt: %v", err)
	}

	var receipt Receipt
	if err := yaml.Unmarshal(raw, &receipt); err != nil {
		t.Fatalf("receipt is not valid yaml: %v", err)
	}

	if receipt.Title != "Publishing Guide" || receipt.SpaceKey != "DOC" {
		t.Errorf("wrong identity fields: %+v", receipt)
	}
	if receipt.PageID != "18350081" || receipt.Version != 5 || receipt.Outcome != "updated" {
		t.Errorf("wrong result fields: %+v", receipt)
	}
	if receipt.PublishedAt.IsZero() || time.Since(receipt.PublishedAt) > time.Minute {
		t.Errorf("published-at not set to now: %v", receipt.PublishedAt)
	}
}
