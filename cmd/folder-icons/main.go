// ABOUTME: Entry point for the folder-icons server
// ABOUTME: Serves folder icons and provides setup, token, and asset maintenance commands

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/2389/folder-icons/internal/auth"
	"github.com/2389/folder-icons/internal/config"
	"github.com/2389/folder-icons/internal/server"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __       _     _                 _
 / _| ___ | | __| | ___ _ __      (_) ___ ___  _ __  ___
| |_ / _ \| |/ _' |/ _ \ '__|_____| |/ __/ _ \| '_ \/ __|
|  _| (_) | | (_| |  __/ | |_____| | (_| (_) | | | \__ \
|_|  \___/|_|\__,_|\___|_|       |_|\___\___/|_| |_|___/
`

// getDataPath returns the folder-icons data directory.
// Priority: XDG_DATA_HOME/folder-icons > ~/.local/share/folder-icons
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "folder-icons")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: folder-icons <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                  Start the HTTP server")
		fmt.Println("  init                   Create a new config file interactively")
		fmt.Println("  token [flags]          Issue an access token")
		fmt.Println("  sweep                  Delete icon assets no folder references")
		fmt.Println("  usage                  Show disk usage of uploaded icons")
		fmt.Println("  health                 Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken(os.Args[2:])
	case "sweep":
		err = runSweep(ctx)
	case "usage":
		err = runUsage(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, string, error) {
	configPath := config.DefaultPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Icons:     %s ", cfg.Icons.Dir)
	gray.Printf("(max %s)\n", humanize.IBytes(uint64(cfg.Icons.MaxUploadSize)))
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.AuthEnabled() {
		cyan.Println("jwt")
	} else {
		yellow.Println("disabled")
	}
	fmt.Println()

	logger.Info("starting folder-icons",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"icons_dir", cfg.Icons.Dir,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// runToken issues a signed access token from the configured secret.
func runToken(args []string) error {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := flags.String("subject", "", "principal the token is issued to (required)")
	admin := flags.Bool("admin", false, "grant admin rights")
	configure := flags.String("configure", "", "comma-separated folder IDs the token may configure, or *")
	ttl := flags.Duration("ttl", 0, "token lifetime (default from auth.token_ttl)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	name := strings.TrimSpace(*subject)
	if name == "" {
		return fmt.Errorf("--subject flag is required")
	}

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return fmt.Errorf("jwt_secret not configured in %s", configPath)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}

	claims := auth.Claims{Subject: name, Admin: *admin}
	for _, id := range strings.Split(*configure, ",") {
		if id = strings.TrimSpace(id); id != "" {
			claims.Configure = append(claims.Configure, id)
		}
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.Auth.TokenTTL
	}

	token, err := verifier.Generate(claims, lifetime)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	color.New(color.FgHiBlack).Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).UTC().Format("Jan 02, 2006"))
	return nil
}

// runSweep deletes unreferenced assets directly against the configured database and directory.
func runSweep(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, setupLogger(cfg.Logging))
	if err != nil {
		return fmt.Errorf("opening server state: %w", err)
	}
	defer srv.Shutdown(context.Background())

	report, err := srv.Cleanup().Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweeping icons: %w", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	green.Printf("  ✓ Scanned %d assets, %d in use\n", report.Scanned, report.Used)
	for _, id := range report.Deleted {
		fmt.Printf("    deleted %s\n", id)
	}
	for _, id := range report.Failed {
		red.Printf("    failed  %s\n", id)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d assets could not be deleted", len(report.Failed))
	}
	return nil
}

func runUsage(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, setupLogger(cfg.Logging))
	if err != nil {
		return fmt.Errorf("opening server state: %w", err)
	}
	defer srv.Shutdown(context.Background())

	usage := srv.Cleanup().DiskUsage()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(usage)
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("folder-icons configuration setup")
	fmt.Println("================================")
	fmt.Println()

	dataPath := getDataPath()

	outputFile := prompt(reader, "Config file path", config.DefaultPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", config.DefaultHTTPAddr)

	fmt.Println("\n--- Storage Configuration ---")
	dbPath := prompt(reader, "SQLite database path", filepath.Join(dataPath, "folders.db"))
	iconsDir := prompt(reader, "Icon directory", filepath.Join(dataPath, "customFolderIcons"))
	maxSize := prompt(reader, "Maximum upload size", config.DefaultMaxUploadSize)

	fmt.Println("\n--- Auth Configuration ---")
	enableAuth := prompt(reader, "Require access tokens?", "yes")
	var jwtSecret string
	if strings.ToLower(enableAuth) == "yes" || strings.ToLower(enableAuth) == "y" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", config.DefaultLogLevel)
	logFormat := prompt(reader, "Log format (text/json)", config.DefaultLogFormat)

	var cfg strings.Builder
	cfg.WriteString("# folder-icons configuration\n")
	cfg.WriteString("# Generated by folder-icons init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("icons:\n")
	cfg.WriteString(fmt.Sprintf("  dir: %q\n", iconsDir))
	cfg.WriteString(fmt.Sprintf("  max_upload_size: %q\n", maxSize))
	cfg.WriteString("  # symbols_file: \"/etc/folder-icons/symbols.toml\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("uploads:\n")
	cfg.WriteString(fmt.Sprintf("  rate_per_second: %g\n", config.DefaultUploadRate))
	cfg.WriteString(fmt.Sprintf("  burst: %d\n", config.DefaultUploadBurst))
	cfg.WriteString("\n")

	if jwtSecret != "" {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", jwtSecret))
		cfg.WriteString(fmt.Sprintf("  token_ttl: %q\n", config.DefaultTokenTTL))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	// Reject a broken config before writing it.
	if _, err := config.Parse([]byte(cfg.String())); err != nil {
		return err
	}

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold the JWT secret.
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	for _, dir := range []string{filepath.Dir(dbPath), iconsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Icons directory: %s\n", iconsDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  folder-icons serve\n")
	if jwtSecret != "" {
		fmt.Println("\nTo issue an admin token:")
		fmt.Printf("  folder-icons token --subject admin --admin\n")
	}

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
