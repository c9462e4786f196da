package mealplan

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot, inspect and restore the plan database",
}

var (
	backupOut    string
	backupDir    string
	backupJSON   bool
	restoreForce bool
)

func printBackupInfo(out io.Writer, info service.BackupInfo) error {
	if backupJSON {
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	fmt.Fprintf(out, "File: %s\n", info.Path)
	fmt.Fprintf(out, "Schema version: %d\n", info.SchemaVersion)
	fmt.Fprintf(out, "Plans: %d  Profiles: %d  Ingredients: %d\n", info.Plans, info.Profiles, info.Ingredients)
	if info.Checksum != "" {
		fmt.Fprintf(out, "SHA-256: %s\n", info.Checksum)
	}
	return nil
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a consistent snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			out := backupOut
			if out == "" && backupDir != "" {
				out = filepath.Join(backupDir, filepath.Base(service.DefaultBackupPath(path, time.Now())))
			}
			info, err := service.CreateBackup(sqldb, path, out)
			if err != nil {
				return err
			}
			log.Info("backup created", "path", info.Path, "plans", info.Plans, "bytes", info.SizeBytes)
			return printBackupInfo(cmd.OutOrStdout(), info)
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots in the backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := backupDir
		if dir == "" {
			path, err := resolveDBPath()
			if err != nil {
				return err
			}
			dir = filepath.Join(filepath.Dir(path), "backups")
		}
		items, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		if backupJSON {
			b, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		if len(items) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", dir)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "FILE\tMODIFIED\tSCHEMA\tPLANS\tPROFILES\tINGREDIENTS\tSTATUS")
		for _, it := range items {
			status := "ok"
			if it.Problem != "" {
				status = it.Problem
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				it.Path, it.ModifiedAt.Format(time.RFC3339), it.SchemaVersion, it.Plans, it.Profiles, it.Ingredients, status)
		}
		return nil
	},
}

var backupInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Check that a file is a readable plan database snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := service.InspectBackup(args[0])
		if err != nil {
			return err
		}
		return printBackupInfo(cmd.OutOrStdout(), info)
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the database with a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		info, err := service.RestoreBackup(args[0], path, restoreForce)
		if err != nil {
			return err
		}
		log.Info("backup restored", "from", info.Path, "to", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%d plans, schema version %d)\n", info.Path, info.Plans, info.SchemaVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupInspectCmd, backupRestoreCmd)

	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Snapshot file path")
	backupCreateCmd.Flags().StringVar(&backupDir, "dir", "", "Snapshot directory (used when --out is empty)")
	backupListCmd.Flags().StringVar(&backupDir, "dir", "", "Snapshot directory (default: backups/ next to the database)")
	for _, c := range []*cobra.Command{backupCreateCmd, backupListCmd, backupInspectCmd} {
		c.Flags().BoolVar(&backupJSON, "json", false, "Output JSON")
	}
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite an existing database")
}
