package infer

import (
	"fmt"
	"strings"

	"github.com/jmfigueroa/planilla/internal/common"
)

// NewProvider creates a structure-inference provider from configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "":
		return newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported inference provider: %s", common.ErrConfiguration, cfg.Provider)
	}
}
