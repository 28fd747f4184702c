package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SectorMap maps tickers to sector proxy instruments and optionally
// overrides the proxy list itself.
//
// Example file:
//
//	proxies: [XLK, XLF, XLE]
//	tickers:
//	  AAPL: XLK
//	  JPM: XLF
type SectorMap struct {
	Proxies []string          `yaml:"proxies"`
	Tickers map[string]string `yaml:"tickers"`
}

// LoadSectorMap reads a sector map file. An empty path returns an empty map
// (sector regime adjustments simply never fire).
func LoadSectorMap(path string) (*SectorMap, error) {
	if path == "" {
		return &SectorMap{Tickers: map[string]string{}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector map: %w", err)
	}

	var m SectorMap
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sector map: %w", err)
	}
	if m.Tickers == nil {
		m.Tickers = map[string]string{}
	}
	return &m, nil
}
