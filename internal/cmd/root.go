package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Coelancanth/Darklands-sub002/internal/noise"
	"github.com/Coelancanth/Darklands-sub002/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "worldclimate",
	Short: "A procedural climate generator for heightmap worlds",
	Long: `WorldClimate turns a raw heightmap into a climate: post-processed elevation,
adaptive thresholds, temperature, precipitation, rain shadows and coastal moisture.

Worlds can be written as grayscale previews, stored in a SQLite database, or
served on demand over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database for stored worlds")
	rootCmd.PersistentFlags().String("noise", "", "Noise backend override (perlin, simplex)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	if err := viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("noise", rootCmd.PersistentFlags().Lookup("noise")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("WORLDCLIMATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadParams returns the pipeline defaults overridden by the climate section
// of the config file and the --noise flag.
func loadParams(v *viper.Viper) (pipeline.Params, error) {
	params := pipeline.DefaultParams()
	if v.IsSet("climate") {
		if err := v.UnmarshalKey("climate", &params); err != nil {
			return pipeline.Params{}, fmt.Errorf("failed to read climate config: %w", err)
		}
	}
	if backend := v.GetString("noise"); backend != "" {
		params.NoiseBackend = noise.Backend(strings.ToLower(strings.TrimSpace(backend)))
	}
	if err := params.Validate(); err != nil {
		return pipeline.Params{}, fmt.Errorf("invalid climate config: %w", err)
	}
	return params, nil
}
