package extract

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

// extractRTF converts RTF to text through lu4p/cat.
func extractRTF(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract RTF: %w", err)
	}
	return strings.TrimSpace(text), nil
}
