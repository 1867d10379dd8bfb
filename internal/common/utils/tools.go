package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const AlphaNum = "0123456789abcdefghijklmnopqrstuvwxyz"

const upperAlphaNum = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateID utils func: for 12-digit random id generation
func GenerateID() string {
	idLength := 12
	stringBuilder := strings.Builder{}
	for i := 0; i < idLength; i++ {
		index := rand.Intn(len(AlphaNum))
		stringBuilder.WriteByte(AlphaNum[index])
	}
	return stringBuilder.String()
}

// NewReqID 16-digit request id for the per-request logger.
func NewReqID() string {
	stringBuilder := strings.Builder{}
	for i := 0; i < 16; i++ {
		index := rand.Intn(len(AlphaNum))
		stringBuilder.WriteByte(AlphaNum[index])
	}
	return stringBuilder.String()
}

// NewApplicationID readable application id, e.g. APP-2026-X7K9QZ.
// Ambiguous characters (0/O, 1/I) are excluded from the random segment.
func NewApplicationID(now time.Time) string {
	stringBuilder := strings.Builder{}
	for i := 0; i < 6; i++ {
		index := rand.Intn(len(upperAlphaNum))
		stringBuilder.WriteByte(upperAlphaNum[index])
	}
	return fmt.Sprintf("APP-%d-%s", now.Year(), stringBuilder.String())
}
