package utils

import (
    "crypto/rand"
    "fmt"
    "math/big"
    "strings"
    "time"

    "github.com/google/uuid"
)

func GenerateRandomString(length int) string {
    const charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
    result := make([]byte, length)
    for i := range result {
        n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
        result[i] = charset[n.Int64()]
    }
    return string(result)
}

// GenerateOrderNumber builds the tracking number: PED-<timestamp>-<8 hex>.
func GenerateOrderNumber() string {
    timestamp := time.Now().Format("20060102150405")
    uniqueID := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
    return fmt.Sprintf("PED-%s-%s", timestamp, uniqueID)
}
