package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/vitaup/VitaUpBack/internal/logger"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	migrationsPath, err := findMigrationsDir(searchRoots())
	if err != nil {
		log.Fatal("migrations_dir_not_found", zap.Error(err))
	}

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsPath), dbUrl)
	if err != nil {
		log.Fatal("migrate_init_failed", zap.Error(err))
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("migrate_close_failed", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	cmd, args := "up", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}
	if err := run(m, cmd, args); err != nil {
		log.Fatal("migration_failed", zap.String("command", cmd), zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Warn("migration_version_unknown", zap.Error(err))
		return
	}
	log.Info("migration_done", zap.String("command", cmd), zap.Uint("version", version), zap.Bool("dirty", dirty))
}

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
}

func run(m migrator, cmd string, args []string) error {
	var err error
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(args) != 1 {
			return errors.New("usage: migrate steps <n>")
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil || n == 0 {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		err = m.Steps(n)
	case "version":
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down, steps or version)", cmd)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// searchRoots lists the working directory with its parents, then the
// binary's directory and its parents.
func searchRoots() []string {
	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, ancestors(cwd, 6)...)
	}
	if exePath, err := os.Executable(); err == nil {
		roots = append(roots, ancestors(filepath.Dir(exePath), 3)...)
	}
	return roots
}

func ancestors(dir string, depth int) []string {
	out := []string{dir}
	for i := 0; i < depth; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		out = append(out, parent)
		dir = parent
	}
	return out
}

func findMigrationsDir(roots []string) (string, error) {
	for _, root := range roots {
		candidate := filepath.Join(root, "migrations")
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", errors.New("no migrations directory in the working directory, the binary's directory or their parents")
}
