package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/Coelancanth/Darklands-sub002/internal/server"
	"github.com/Coelancanth/Darklands-sub002/internal/terrain"
	"github.com/Coelancanth/Darklands-sub002/internal/worldstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve world summaries and field previews, generating worlds on demand",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent world generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 2*time.Minute, "Timeout per world generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served responses")
	serveCmd.Flags().Int("cache-size", 16, "Number of generated worlds kept in memory")
	serveCmd.Flags().Int("default-width", 256, "World width when a request omits ?width")
	serveCmd.Flags().Int("default-height", 256, "World height when a request omits ?height")
	serveCmd.Flags().Int("max-dimension", 1024, "Largest width or height a request may ask for")
	serveCmd.Flags().Int("preview-size", 0, "Longest PNG edge when a request omits ?size (0 = one pixel per cell)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.cache_size", "cache-size")
	mustBind("serve.default_width", "default-width")
	mustBind("serve.default_height", "default-height")
	mustBind("serve.max_dimension", "max-dimension")
	mustBind("serve.preview_size", "preview-size")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	dbPath := viper.GetString("db")
	cfg := server.Config{
		CacheControl:             viper.GetString("serve.cache_control"),
		DefaultWidth:             viper.GetInt("serve.default_width"),
		DefaultHeight:            viper.GetInt("serve.default_height"),
		MaxDimension:             viper.GetInt("serve.max_dimension"),
		PreviewSize:              viper.GetInt("serve.preview_size"),
		CacheSize:                viper.GetInt("serve.cache_size"),
		MaxConcurrentGenerations: viper.GetInt("serve.max_concurrent_generations"),
		GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
	}

	params, err := loadParams(viper.GetViper())
	if err != nil {
		return err
	}
	gen, err := pipeline.NewGenerator(terrain.NewSynthetic(), params, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	// A nil *worldstore.Store must not be stored in the interface.
	var store server.Store
	if dbPath != "" {
		s, err := worldstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	ws := server.New(gen, store, cfg, logger)

	logger.Info("world server listening",
		"addr", addr,
		"db", dbPath,
		"max_concurrent_generations", cfg.MaxConcurrentGenerations,
		"generation_timeout", cfg.GenerationTimeout,
		"cache_size", cfg.CacheSize,
	)

	srv := &http.Server{Addr: addr, Handler: withCORS(ws.Router()), ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
