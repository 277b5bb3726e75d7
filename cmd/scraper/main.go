// Scraper CLI: scrape one corporate-action category from sahamidx.com and
// sync the result into the store.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sahamlab/idxca/internal/ai"
	"github.com/sahamlab/idxca/internal/config"
	"github.com/sahamlab/idxca/internal/notify"
	"github.com/sahamlab/idxca/internal/sahamidx"
	"github.com/sahamlab/idxca/internal/store"
	"github.com/sahamlab/idxca/internal/syncer"
	"github.com/sahamlab/idxca/internal/types"
)

var dateFlag string

var rootCmd = &cobra.Command{
	Use:       "scraper <category>",
	Short:     "Scrape IDX corporate actions from sahamidx.com and sync them to the store",
	Long:      "Scrapes one corporate-action category (rups, bonus, warrant or right) from\nsahamidx.com's paginated listings, filters rows to known instruments,\ndeduplicates and upserts the batch into the store.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"rups", "bonus", "warrant", "right"},
	RunE:      run,

	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "cutoff date in YYYY-MM-DD format (default: category-specific lookback)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Category and cutoff are validated before any network or store call.
	cat, err := types.ParseCategory(args[0])
	if err != nil {
		return err
	}

	var cutoff time.Time
	if dateFlag != "" {
		cutoff, err = time.Parse(types.DateFormat, dateFlag)
		if err != nil {
			return fmt.Errorf("invalid cutoff date %q: %w", dateFlag, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to store", "error", err)
		return err
	}
	defer db.Close()

	// Scraping without a valid allow-list would admit unverified instruments,
	// so this failure aborts before any page is fetched.
	allowed, err := db.AllowedSymbols(ctx)
	if err != nil {
		logger.Error("failed to fetch allowed symbols", "error", err)
		return err
	}

	scraper := sahamidx.New(logger)
	res, err := scraper.Run(ctx, cat, allowed, cutoff)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		return err
	}

	affected, err := syncer.Sync(ctx, db, cat, res.Records, logger)
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	if affected > 0 {
		sendDigest(cmd, cfg, cat, res, affected, logger)
	}

	// Collected records were synced above, but a fetch error still means the
	// run did not cover its window.
	if res.StopReason == types.StopFetchError {
		return fmt.Errorf("run stopped early after page %d: %s", res.Pages, res.StopReason)
	}

	return nil
}

func sendDigest(cmd *cobra.Command, cfg *config.Config, cat types.Category, res types.Result, affected int64, logger *slog.Logger) {
	if !cfg.SMTP.Enabled() {
		return
	}

	digest := notify.Digest{
		Category: cat,
		RunDate:  time.Now().Format(types.DateFormat),
		Cutoff:   res.Cutoff.Format(types.DateFormat),
		Affected: affected,
		Records:  res.Records,
	}

	if cfg.Gemini.APIKey != "" {
		commentary, err := ai.GenerateCommentary(cmd.Context(), cat.Name, res.Records, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("AI commentary failed, sending digest without it", "error", err)
		} else {
			digest.Commentary = commentary
		}
	}

	msg, err := notify.NewHTMLEmailRenderer().Render(digest)
	if err != nil {
		logger.Warn("failed to render digest email", "error", err)
		return
	}

	sender := notify.NewEmailSender(notify.EmailConfig{
		SMTPServer: cfg.SMTP.Server,
		SMTPPort:   cfg.SMTP.Port,
		SMTPUser:   cfg.SMTP.User,
		SMTPPass:   cfg.SMTP.Pass,
		FromEmail:  cfg.SMTP.From,
		ToEmail:    cfg.SMTP.To,
		Enabled:    cfg.SMTP.Enabled(),
	})
	if err := sender.Send(msg); err != nil {
		logger.Warn("failed to send digest email", "error", err)
		return
	}

	logger.Info("digest email sent", "to", cfg.SMTP.To, "records", len(res.Records))
}
