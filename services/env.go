package services

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv reads an optional .env file into the process environment.
// Variables already set in the environment win over the file.
func LoadEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetEnvInt returns fallback when key is unset or not a number.
func GetEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

// OutfitSeed is the base seed of the outfit shuffle.
func OutfitSeed() uint32 {
	seed, err := strconv.ParseUint(GetEnv("OUTFIT_SEED", ""), 10, 32)
	if err != nil {
		return 1
	}
	return uint32(seed)
}
