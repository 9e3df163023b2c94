package infer

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/model"
)

// cleanMarkdownWrapper strips the ```json fences some models wrap their
// output in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// decodeMapping parses the provider's response into a structural mapping.
// One repair pass is attempted on malformed JSON; anything still unparsable
// is a fatal inference error.
func decodeMapping(content string) (*model.StructuralMapping, error) {
	content = cleanMarkdownWrapper(content)

	var mapping model.StructuralMapping
	if err := json.Unmarshal([]byte(content), &mapping); err != nil {
		repaired, repairErr := jsonrepair.RepairJSON(content)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: unparsable provider response: %v", common.ErrInference, err)
		}
		if err := json.Unmarshal([]byte(repaired), &mapping); err != nil {
			return nil, fmt.Errorf("%w: unparsable provider response after repair: %v", common.ErrInference, err)
		}
	}

	if len(mapping.DayColumns) == 0 && len(mapping.ProjectColumnIndices) == 0 {
		return nil, fmt.Errorf("%w: provider response names no day or project columns", common.ErrInference)
	}
	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInference, err)
	}

	return &mapping, nil
}
