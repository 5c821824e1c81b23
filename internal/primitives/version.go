package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeVersion computes deterministic version for MachineDefinition.
// Priority: user-provided Version, else SHA256(definition JSON)[:8].
func ComputeVersion(def *MachineDefinition) string {
	if def.Version != "" {
		return def.Version
	}

	data, err := json.Marshal(def)
	if err != nil {
		// Fallback (should not happen for valid definitions)
		return fmt.Sprintf("invalid-%d", time.Now().Unix())
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
