package utils

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// GetPersistentServerID returns a stable ID for this server, used to tag the
// fill locks it holds. An override wins, then the ID saved in cacheDir, then
// the hostname, then a random ID that is saved for next time.
func GetPersistentServerID(override, cacheDir string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(cacheDir, ".server_id")
	if data, err := os.ReadFile(idFile); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id
		}
	}

	hostname, err := os.Hostname()
	if err == nil && hostname != "" && hostname != "localhost" {
		cleanHost := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return -1
		}, hostname)
		if cleanHost != "" {
			return "azapod-" + cleanHost
		}
	}

	randomPart := make([]byte, 4)
	rand.Read(randomPart)
	newID := "azapod-" + hex.EncodeToString(randomPart)

	_ = os.MkdirAll(cacheDir, 0755)
	_ = os.WriteFile(idFile, []byte(newID), 0644)

	return newID
}
