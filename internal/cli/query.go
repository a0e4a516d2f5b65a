package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-andiamo/rowmap"
	"github.com/go-andiamo/rowmap/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newQueryCommand() *cobra.Command {
	var configPath, driver, dsn, level string
	var limit int

	cmd := &cobra.Command{
		Use:   "query [flags] <sql>",
		Short: "Runs a query and prints the mapped rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := config.Default()
			if configPath != "" {
				var err error
				if c, err = config.NewFromFile(configPath); err != nil {
					return err
				}
			}
			if driver != "" {
				c.Database.Driver = driver
			}
			if dsn != "" {
				c.Database.DSN = dsn
			}
			if level != "" {
				c.Logger.Level = level
			}
			if err := c.Validate(); err != nil {
				return err
			}
			if !slices.Contains(sql.Drivers(), c.Database.Driver) {
				return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
			}

			logger, err := newLogger(c.Logger.Level)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()
			l := logger.Named("query")

			ctx := cmd.Context()
			db, err := sql.Open(c.Database.Driver, c.Database.DSN)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()
			if err := db.PingContext(ctx); err != nil {
				return err
			}

			rows, err := db.QueryContext(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = rows.Close()
			}()

			cursorOptions := []any{rowmap.UseDecimals(c.UseDecimals())}
			if len(c.Mapping.BoolColumns) > 0 {
				scanners := rowmap.ColumnScanners{}
				for _, col := range c.Mapping.BoolColumns {
					scanners[col] = rowmap.BoolColumn
				}
				cursorOptions = append(cursorOptions, scanners)
			}
			cursor, err := rowmap.NewCursor(rows, cursorOptions...)
			if err != nil {
				return err
			}

			records, err := newRecordFactory(c)
			if err != nil {
				return err
			}
			reg, err := rowmap.NewRegistry(records, l)
			if err != nil {
				return err
			}
			var mapOptions []any
			if limit > 0 {
				mapOptions = append(mapOptions, rowmap.MaxRows(limit))
			}
			result, err := rowmap.MapAll[rowmap.Record](reg, cursor, mapOptions...)
			if err != nil {
				return err
			}
			l.Info("query complete", zap.Int("rows", len(result)), zap.Strings("columns", cursor.Columns()))

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to yaml config file")
	cmd.Flags().StringVar(&driver, "driver", "", "database driver (sqlite3, pgx, postgres or mysql) - overrides config")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database dsn - overrides config")
	cmd.Flags().StringVar(&level, "log-level", "", "log level - overrides config")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows to print (0 for all)")

	return cmd
}

func newRecordFactory(c *config.Config) (rowmap.Factory, error) {
	options := make([]any, 0, 2)
	if len(c.Mapping.Exclude) > 0 {
		options = append(options, rowmap.ExcludeColumns(c.Mapping.Exclude))
	}
	if len(c.Mapping.OmitNull) > 0 {
		mappings := rowmap.RecordMappings{}
		for _, col := range c.Mapping.OmitNull {
			mappings[col] = rowmap.RecordMapping{OmitNull: true}
		}
		options = append(options, mappings)
	}
	return rowmap.NewRecordFactory(options...)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
