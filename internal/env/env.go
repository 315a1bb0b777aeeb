package env

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Load reads dotenv files in order. Variables already set in the process, or by an earlier file, are kept.
// Missing files are skipped; the first malformed file is reported.
func Load(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}
