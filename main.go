package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/haryoiro/tubetone/internal/config"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/database"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/player"
	"github.com/haryoiro/tubetone/internal/structures"
	"github.com/haryoiro/tubetone/internal/systems"
	"github.com/haryoiro/tubetone/internal/ui"
	"github.com/haryoiro/tubetone/internal/version"
)

const (
	appName = "tubetone"
	banner  = `
████████╗██╗   ██╗██████╗ ███████╗████████╗ ██████╗ ███╗   ██╗███████╗
╚══██╔══╝██║   ██║██╔══██╗██╔════╝╚══██╔══╝██╔═══██╗████╗  ██║██╔════╝
   ██║   ██║   ██║██████╔╝█████╗     ██║   ██║   ██║██╔██╗ ██║█████╗
   ██║   ██║   ██║██╔══██╗██╔══╝     ██║   ██║   ██║██║╚██╗██║██╔══╝
   ██║   ╚██████╔╝██████╔╝███████╗   ██║   ╚██████╔╝██║ ╚████║███████╗
   ╚═╝    ╚═════╝ ╚═════╝ ╚══════╝   ╚═╝    ╚═════╝ ╚═╝  ╚═══╝╚══════╝
                    YouTube music in the terminal`
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showFiles   = flag.Bool("files", false, "Show file locations")
		fixDB       = flag.Bool("fix-db", false, "Check and repair the database")
		clearCache  = flag.Bool("clear-cache", false, "Clear cache data (database, logs)")
		showVersion = flag.Bool("version", false, "Show version")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		checkAPI    = flag.Bool("check", false, "Check the YouTube API connection and exit")
		envFile     = flag.String("env", ".env", "Environment file with YOUTUBE_API_KEY")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	configDir, cacheDir, dataDir := config.Directories(appName)
	configPath := filepath.Join(configDir, "config.toml")
	dbPath := filepath.Join(dataDir, appName+".db")
	logPath := filepath.Join(dataDir, appName+".log")
	lyricsDir := filepath.Join(dataDir, "lyrics")

	if *showFiles {
		fmt.Printf("# %s file locations:\n", appName)
		fmt.Printf("  Config:   %s\n", configPath)
		fmt.Printf("  Cache:    %s\n", cacheDir)
		fmt.Printf("  Database: %s\n", dbPath)
		fmt.Printf("  Lyrics:   %s\n", lyricsDir)
		fmt.Printf("  Logs:     %s\n", logPath)
		return
	}

	if *fixDB {
		runFixDB(dbPath)
		return
	}

	if *clearCache {
		runClearCache(configDir, cacheDir, dataDir)
		return
	}

	if err := initLogging(logPath, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseLogger()

	cfg := loadConfiguration(configPath)
	if err := config.LoadEnv(cfg, *envFile, filepath.Join(configDir, ".env")); err != nil {
		logger.Warn("Failed to load environment: %v", err)
	}

	if *checkAPI {
		runCheck(cfg)
		return
	}

	if err := checkMPV(cfg.MPVPath); err != nil {
		showMPVError(err)
		return
	}

	db := initializeDatabase(dbPath)
	defer func() {
		logger.Debug("Closing database connection")
		db.Close()
	}()

	appSystems := initializeSystems(cfg, db, lyricsDir)
	defer func() {
		logger.Debug("Stopping all application systems...")
		if err := appSystems.Stop(); err != nil {
			logger.Warn("Shutdown error: %v", err)
		}
	}()

	logger.Debug("Starting UI")
	if err := ui.Run(appSystems, cfg); err != nil {
		logger.Fatal("Application error: %v", err)
	}

	logger.Info("%s shutdown complete", appName)
}

func printHelp() {
	fmt.Println(banner)
	fmt.Printf("\nUsage: %s [OPTIONS]\n", appName)
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
	fmt.Println("\nKeyboard shortcuts:")
	fmt.Println("  Player:")
	fmt.Println("    Space       - Play/Pause")
	fmt.Println("    ← / →       - Seek")
	fmt.Println("    n / p       - Next / previous track")
	fmt.Println("    + / -       - Volume")
	fmt.Println("    s           - Shuffle")
	fmt.Println("    R           - Cycle repeat (off, all, one)")
	fmt.Println("    v           - Toggle audio/video")
	fmt.Println("    y           - Lyrics (audio mode)")
	fmt.Println("    e           - Expand player")
	fmt.Println("    Ctrl+C      - Quit")
	fmt.Println("")
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k ↓/j     - Move selection")
	fmt.Println("    Enter or l  - Play/open")
	fmt.Println("    Esc         - Back")
	fmt.Println("    Tab         - Next home section")
	fmt.Println("    /           - Search")
	fmt.Println("    q           - Queue")
	fmt.Println("    a           - Add selected track to queue")
	fmt.Println("    P           - Playlists")
	fmt.Println("    A           - Add playing track to playlist")
	fmt.Println("    ?           - API status")
	fmt.Println("    h           - Home")
	fmt.Println("\nEnvironment:")
	fmt.Printf("  %s          - YouTube Data API v3 key\n", config.EnvAPIKey)
	fmt.Printf("  %s       - Use a catalog proxy instead of the API key\n", config.EnvProxyURL)
	fmt.Printf("  %s     - Bearer token for the proxy\n", config.EnvProxyToken)
}

func initLogging(logFile string, debugMode bool) error {
	level := logger.INFO
	if debugMode {
		level = logger.DEBUG
	}
	if err := logger.InitLogger(logger.Options{Path: logFile, Level: level, DebugMode: debugMode}); err != nil {
		return err
	}
	logger.Info("Logger initialized with debug mode: %v", debugMode)
	return nil
}

func loadConfiguration(configPath string) *structures.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
		if err := config.Save(cfg, configPath); err != nil {
			logger.Warn("Failed to save default config: %v", err)
		} else {
			logger.Info("Created default config at: %s", configPath)
		}
	} else {
		logger.Debug("Configuration loaded successfully from: %s", configPath)
	}
	return cfg
}

func initializeDatabase(path string) database.DB {
	db, err := database.OpenSQLite(path)
	if err != nil {
		logger.Fatal("Failed to open SQLite database: %v", err)
	}
	logger.Debug("SQLite database opened successfully")
	return db
}

func initializeSystems(cfg *structures.Config, db database.DB, lyricsDir string) *systems.Systems {
	ctx, cancel := context.WithTimeout(context.Background(), constants.MPVStartupTimeout)
	defer cancel()

	source, err := systems.NewSource(context.Background(), cfg)
	if err != nil {
		logger.Warn("YouTube API not available: %v", err)
	}
	if source == nil {
		logger.Warn("%s", constants.MsgMissingAPIKey)
	}

	// a nil *MPV must not end up inside the Engine interface
	var engine player.Engine
	mpv, err := player.NewMPV(ctx, player.MPVOptions{
		Path:       cfg.MPVPath,
		YTDLFormat: cfg.YTDLFormat,
		Video:      cfg.StartMode == structures.PlaybackVideo,
	})
	if err != nil {
		logger.Error("Failed to start mpv: %v", err)
	} else {
		engine = mpv
	}

	appSystems := systems.New(cfg, db, engine, source, lyricsDir)
	if err := appSystems.Start(); err != nil {
		logger.Fatal("Failed to start systems: %v", err)
	}
	logger.Info("All systems started successfully")
	return appSystems
}

func runCheck(cfg *structures.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*constants.APIRequestTimeout)
	defer cancel()

	fmt.Println("Environment Variables:")
	for _, line := range config.Diagnose(cfg).Lines() {
		fmt.Println(line)
	}

	sys := systems.NewAPISystem(cfg, nil)
	st := sys.CheckConnection(ctx)
	mark := "✓"
	if !st.Success {
		mark = "✗"
	}
	fmt.Printf("\n%s %s\n", mark, st.Message)
	for k, v := range st.Details {
		if t, ok := v.(structures.Track); ok {
			v = t.Title
		}
		fmt.Printf("  %s: %v\n", k, v)
	}
	if !st.Success {
		os.Exit(1)
	}
}

func runFixDB(path string) {
	fmt.Println("Checking database...")
	db, err := database.OpenSQLite(path)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Repair(); err != nil {
		fmt.Printf("Repair failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Database is healthy")
}

func runClearCache(configDir, cacheDir, dataDir string) {
	fmt.Println("⚠️  WARNING: This will delete:")
	fmt.Println("  - Database (playlists, history, preferences)")
	fmt.Println("  - Logs")
	fmt.Println("  - Lyrics files")
	fmt.Println("\nAre you sure you want to continue? (y/N): ")

	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "y" && confirm != "Y" {
		fmt.Println("Cache clearing cancelled.")
		return
	}

	for _, dir := range []string{cacheDir, dataDir} {
		if err := os.RemoveAll(dir); err != nil {
			fmt.Printf("Failed to clear %s: %v\n", dir, err)
		} else {
			fmt.Printf("✓ Cleared %s\n", dir)
		}
	}
	fmt.Printf("\nNote: Configuration files in %s were preserved\n", configDir)
}

func checkMPV(path string) error {
	if path == "" {
		path = "mpv"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, resolved, "--version").Output()
	if err != nil {
		return fmt.Errorf("failed to run mpv: %w", err)
	}
	first, _, _ := strings.Cut(string(output), "\n")
	logger.Info("Found %s", strings.TrimSpace(first))

	if _, err := exec.LookPath("yt-dlp"); err != nil {
		logger.Warn("yt-dlp not found in PATH, mpv may not be able to open YouTube URLs")
	}
	return nil
}

func showMPVError(err error) {
	fmt.Println(banner)
	fmt.Printf("\n❌ %v\n", err)
	fmt.Println("\nmpv (with yt-dlp) is required for playback.")
	fmt.Println("\nInstallation instructions:")
	fmt.Println("  macOS:    brew install mpv yt-dlp")
	fmt.Println("  Linux:    sudo apt install mpv yt-dlp")
	fmt.Println("  Windows:  winget install mpv yt-dlp")
}
