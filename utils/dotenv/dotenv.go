// Package dotenv layers .env files into the process environment. Files are
// looked up relative to the working directory, earlier files win because
// godotenv never overrides a variable that is already set.
package dotenv

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvVar  = "FEEDSIM_ENV"
	ProdEnv = "prod"
	DevEnv  = "dev"
	TestEnv = "test"

	moduleDir = "feedsim"
)

// Env returns the runtime environment, dev unless FEEDSIM_ENV says otherwise.
func Env() string {
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	return DevEnv
}

// envFiles lists the files of env from highest to lowest priority: local
// secrets first, shared defaults last.
func envFiles(dir, env string) []string {
	return []string{
		filepath.Join(dir, ".env."+env+".local"),
		filepath.Join(dir, ".env.local"),
		filepath.Join(dir, ".env."+env),
		filepath.Join(dir, ".env"),
	}
}

// load reads every existing file of the list. Missing files are expected.
func load(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}

// LoadDotEnvs is called once from main, the rest of the code reads the
// environment through os.Getenv.
func LoadDotEnvs() error {
	return load(envFiles("", Env()))
}

// LoadDotEnvsInTests loads .env.test from the module root. Test binaries run
// inside the package directory, so the root is recovered from the working
// directory.
func LoadDotEnvsInTests() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := cwd
	if i := strings.LastIndex(cwd, moduleDir); i >= 0 {
		root = cwd[:i+len(moduleDir)]
	}
	return load([]string{filepath.Join(root, ".env."+TestEnv)})
}

// IsProdEnv returns true iff the process runs with FEEDSIM_ENV=prod.
func IsProdEnv() bool {
	return Env() == ProdEnv
}
