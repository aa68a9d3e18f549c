package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/hongsenwang01/knowledge-base/internal/app"
	"github.com/hongsenwang01/knowledge-base/internal/config"
	"github.com/hongsenwang01/knowledge-base/internal/encryption"
	"github.com/hongsenwang01/knowledge-base/internal/kb"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file named by the application defaults.
func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a KBApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Upload", "Serve").
func newApp(ctx context.Context, operation string, opts app.Options) (*app.KBApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	opts.Operation = operation
	if opts.Unlock {
		opts.Passphrase = unlockPassphrase
	}
	a, err := app.NewKBApp(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}

func optionalArg(args []string, i int, fallback string) string {
	if len(args) > i {
		return args[i]
	}
	return fallback
}

var rootCmd = &cobra.Command{
	Use:          "kb",
	Short:        "Knowledge base file manager",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Run 'kb db migrate' to create the database.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Listen:        %s\n", cfg.Server.Addr)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		switch cfg.Storage.Type {
		case "s3":
			fmt.Printf("Storage:       s3://%s/%s\n", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		default:
			fmt.Printf("Storage:       %s %s\n", cfg.Storage.Type, cfg.Storage.Root)
		}
		fmt.Printf("Max File Size: %s\n", kb.FormatFileSize(cfg.Upload.MaxFileSize))
		fmt.Printf("Encryption:    %t\n", cfg.Encryption.Enabled)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		pass, err := newPassphrase()
		if err != nil {
			return err
		}
		if err := app.SetupEncryption(cfg.Encryption, pass); err != nil {
			if errors.Is(err, encryption.ErrKeysExist) {
				return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
			}
			return err
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		if !cfg.Encryption.Enabled {
			fmt.Println("Set encryption.enabled = true in the config to encrypt new uploads.")
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Migrate", app.Options{Migrate: true})
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println("Database schema is up to date.")
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "BackupDatabase", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		dest, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if err := a.BackupDatabase(cmd.Context(), dest); err != nil {
			return err
		}
		fmt.Printf("Database written to %s\n", dest)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Serve", app.Options{Unlock: true})
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

// dir command
var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Manage directories",
}

var dirMkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parents, _ := cmd.Flags().GetBool("parents")
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp(cmd.Context(), "MakeDirectory", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		dir, err := a.MakeDirectory(cmd.Context(), args[0], description, parents)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (id %d)\n", dir.Path, dir.ID)
		return nil
	},
}

var dirMvCmd = &cobra.Command{
	Use:   "mv PATH NEW_PARENT",
	Short: "Move a directory under another directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "MoveDirectory", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		dir, err := a.MoveDirectory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Moved to %s\n", dir.Path)
		return nil
	},
}

var dirRenameCmd = &cobra.Command{
	Use:   "rename PATH NEW_NAME",
	Short: "Rename a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RenameDirectory", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		dir, err := a.RenameDirectory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed to %s\n", dir.Path)
		return nil
	},
}

var dirRmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Delete an empty directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RemoveDirectory", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.RemoveDirectory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s (%s)", res.Message, res.Code)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var dirTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the directory tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Tree", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		nodes, err := a.Tree(cmd.Context())
		if err != nil {
			return err
		}
		printTree(nodes, "")
		return nil
	},
}

func printTree(nodes []*kb.DirectoryNode, indent string) {
	for _, n := range nodes {
		name := n.Name
		if n.IsRoot {
			name = "/"
		}
		fmt.Printf("%s%s  [%d]\n", indent, name, n.ID)
		printTree(n.Children, indent+"  ")
	}
}

var dirLsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListDirectory", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := a.ListDirectory(cmd.Context(), optionalArg(args, 0, "/"))
		if err != nil {
			return err
		}
		if len(listing.Directories) == 0 && len(listing.Files) == 0 {
			fmt.Println("Empty directory.")
			return nil
		}
		for _, d := range listing.Directories {
			fmt.Printf("d  %6d  %10s  %s/\n", d.ID, "-", d.Name)
		}
		printFiles(listing.Files)
		return nil
	},
}

func printFiles(files []kb.FileEntry) {
	for _, f := range files {
		fmt.Printf("f  %6d  %10s  %s\n", f.ID, kb.FormatFileSize(f.Size), f.OriginalName)
	}
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files",
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload LOCAL_FILE [DIR]",
	Short: "Upload a local file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp(cmd.Context(), "Upload", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.UploadFile(cmd.Context(), args[0], optionalArg(args, 1, "/"), description)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %s (id %d, %s)\n", entry.OriginalName, entry.ID, kb.FormatFileSize(entry.Size))
		return nil
	},
}

var fileDownloadCmd = &cobra.Command{
	Use:   "download ID [DEST]",
	Short: "Download a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "Download", app.Options{Unlock: true})
		if err != nil {
			return err
		}
		defer a.Close()

		written, err := a.DownloadFile(cmd.Context(), id, optionalArg(args, 1, ""))
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", written)
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "RemoveFile", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveFile(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("file %d not found", id)
		}
		fmt.Printf("Deleted file %d\n", id)
		return nil
	},
}

var fileLsCmd = &cobra.Command{
	Use:   "ls [DIR]",
	Short: "List the files of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListFiles", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := a.ListDirectory(cmd.Context(), optionalArg(args, 0, "/"))
		if err != nil {
			return err
		}
		if len(listing.Files) == 0 {
			fmt.Println("No files.")
			return nil
		}
		printFiles(listing.Files)
		return nil
	},
}

var fileInfoCmd = &cobra.Command{
	Use:   "info ID",
	Short: "Show file metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "FileInfo", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.FileInfo(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %d\n", f.ID)
		fmt.Printf("Name:        %s\n", f.OriginalName)
		fmt.Printf("Stored As:   %s\n", f.StoredName)
		fmt.Printf("Directory:   %s (id %d)\n", f.DirectoryName, f.DirectoryID)
		fmt.Printf("Size:        %s (%d bytes)\n", f.SizeFormatted, f.Size)
		fmt.Printf("Type:        %s (%s)\n", f.FileType, f.MimeType)
		fmt.Printf("SHA-256:     %s\n", f.ContentHash)
		fmt.Printf("Downloads:   %d\n", f.DownloadCount)
		fmt.Printf("Uploaded:    %s\n", f.CreatedAt.Format("2006-01-02 15:04:05"))
		if f.Description != "" {
			fmt.Printf("Description: %s\n", f.Description)
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import LOCAL_DIR [DIR]",
	Short: "Import a local directory tree",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx, "Import", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Import(ctx, args[0], optionalArg(args, 1, "/"))
		if summary != nil {
			fmt.Printf("Imported %d file(s), %s; %d new and %d existing directories\n",
				summary.Files, kb.FormatFileSize(summary.Bytes),
				summary.DirectoriesCreated, summary.DirectoriesReused)
			for _, s := range summary.Skipped {
				fmt.Printf("skipped %s: %s\n", s.Path, s.Reason)
			}
		}
		return err
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Statistics", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Statistics(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Directories:   %d\n", s.TotalDirectories)
		fmt.Printf("Files:         %d\n", s.TotalFiles)
		fmt.Printf("Total Size:    %s\n", s.TotalFileSizeFormatted)
		fmt.Printf("Unique Blobs:  %d (%s)\n", s.UniqueBlobs, kb.FormatFileSize(s.StoredBytes))
		fmt.Printf("Dedup Savings: %s\n", kb.FormatFileSize(s.DedupSavedBytes))
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbBackupCmd)

	// dir subcommands
	dirCmd.AddCommand(dirMkdirCmd, dirMvCmd, dirRenameCmd, dirRmCmd, dirTreeCmd, dirLsCmd)
	dirMkdirCmd.Flags().BoolP("parents", "p", false, "Create missing parent directories")
	dirMkdirCmd.Flags().StringP("description", "d", "", "Directory description")

	// file subcommands
	fileCmd.AddCommand(fileUploadCmd, fileDownloadCmd, fileRmCmd, fileLsCmd, fileInfoCmd)
	fileUploadCmd.Flags().StringP("description", "d", "", "File description")

	// root commands
	rootCmd.AddCommand(configCmd, keysCmd, dbCmd, serveCmd, dirCmd, fileCmd, importCmd, statsCmd)
}
