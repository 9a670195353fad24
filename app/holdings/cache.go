package holdings

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/marketbrief/marketbrief/app/news"
)

type holdingsFile struct {
	Holdings []news.Holding `yaml:"holdings"`
}

// Cache holds the tracked holdings loaded from a YAML file. It is safe for
// concurrent readers; Reload swaps the whole list atomically.
type Cache struct {
	filePath string
	mu       sync.RWMutex
	holdings []news.Holding
}

func NewCache(filePath string) *Cache {
	return &Cache{filePath: filePath}
}

// Run loads the holdings file. A missing file is not an error: the service
// starts with an empty holdings list.
func (c *Cache) Run() error {
	if _, err := os.Stat(c.filePath); os.IsNotExist(err) {
		slog.Warn("Holdings file not found, starting with no holdings", "path", c.filePath)
		return nil
	}

	return c.Reload()
}

// Reload re-reads the holdings file and replaces the cached list.
func (c *Cache) Reload() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return fmt.Errorf("failed to read holdings file: %w", err)
	}

	var parsed holdingsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse holdings file: %w", err)
	}

	valid := make([]news.Holding, 0, len(parsed.Holdings))
	for _, holding := range parsed.Holdings {
		if strings.TrimSpace(holding.Ticker) == "" {
			slog.Warn("Skipping holding without ticker", "label", holding.Label)
			continue
		}
		valid = append(valid, holding)
	}

	c.mu.Lock()
	c.holdings = valid
	c.mu.Unlock()

	slog.Debug("Holdings loaded", "path", c.filePath, "count", len(valid))

	return nil
}

// GetHoldings returns a copy of the cached holdings list.
func (c *Cache) GetHoldings() []news.Holding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	holdings := make([]news.Holding, len(c.holdings))
	copy(holdings, c.holdings)
	return holdings
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.holdings)
}
