package envstruct

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// WithDotenv layers the variables in the dotenv file at path beneath lookupEnv.
//
// Values from lookupEnv take precedence so that the real environment can override the file. A missing file is not
// an error and returns lookupEnv unchanged. The process environment is never modified.
func WithDotenv(path string, lookupEnv func(string) (string, bool)) (func(string) (string, bool), error) {
	if path == "" {
		return lookupEnv, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lookupEnv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dotenv %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}
