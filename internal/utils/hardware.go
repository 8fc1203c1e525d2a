package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// GetTerminalID derives a stable register identifier from the machine's MAC
// address, hashed so the UI shows a clean ID like "POS-A1B2C3D4".
func GetTerminalID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "UNKNOWN-TERMINAL"
	}

	var macAddress string
	for _, i := range interfaces {
		// First active physical interface wins
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}

	if macAddress == "" {
		return "UNKNOWN-TERMINAL"
	}

	hash := sha256.Sum256([]byte(macAddress + "FLOWERBELLE-POS"))
	hashString := hex.EncodeToString(hash[:])

	return "POS-" + strings.ToUpper(hashString[:8])
}
