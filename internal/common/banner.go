package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the settings a run depends on
func PrintBanner(config *Config) {
	banner.PrintSimple("MarketMood", GetVersion())
	fmt.Printf("  environment: %s\n", config.Environment)
	fmt.Printf("  emotion:     %s\n", config.Emotion.Provider)
	fmt.Printf("  imputation:  %t (corpus %s)\n", config.Imputation.Enabled, config.Imputation.CorpusPath)
	fmt.Printf("  output:      %s (%s)\n\n", config.Output.Dir, config.Output.Encoding)
}
