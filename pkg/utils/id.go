package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateConnID generates a unique connection ID
func GenerateConnID() string {
	return GenerateID("conn")
}

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%s_%d_%s", prefix, timestamp, hex.EncodeToString(b))
}
