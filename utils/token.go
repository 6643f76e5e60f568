package utils

import (
	"math/rand"
	"time"
)

// GenerateRandomToken makes short alphanumeric codes (community pickup codes).
func GenerateRandomToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	token := make([]byte, length)
	for i := range token {
		token[i] = charset[r.Intn(len(charset))]
	}
	return string(token)
}
