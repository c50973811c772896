package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"youtrait/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// MigrationNames devuelve los scripts embebidos en orden de aplicación.
func MigrationNames() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

const channelPlaceholder = "{{channel}}"

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// RenderMigration devuelve el script name con el canal de NOTIFY de los
// triggers reemplazado por channel.
func RenderMigration(name, channel string) (string, error) {
	if !channelPattern.MatchString(channel) {
		return "", fmt.Errorf("invalid change feed channel %q", channel)
	}
	script, err := migrationFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return strings.ReplaceAll(string(script), channelPlaceholder, channel), nil
}

// Migrate aplica los scripts embebidos. Todos son idempotentes; los triggers
// notifican en channel, el mismo que escucha pgfeed.
func Migrate(ctx context.Context, pool *pgxpool.Pool, channel string) error {
	names, err := MigrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		script, err := RenderMigration(name, channel)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, script); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}
