// Command anychat is a terminal demo of the completion engine: it reads a
// provider from a YAML config, streams an answer for the prompt given on the
// command line, and prints deltas as they arrive. Ctrl-C stops the stream
// and keeps the partial answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/telmok/anychat"
	"github.com/telmok/anychat/core/engine"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
	"github.com/telmok/anychat/providers/observability/slogobs"
	"github.com/telmok/anychat/providers/tool/websearch"
)

func main() {
	configPath := flag.String("config", "anychat.yaml", "path to the provider config file")
	model := flag.String("model", "", "model override")
	browse := flag.Bool("browse", false, "enable web browsing for this prompt")
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: anychat [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*configPath, *model, *browse, prompt); err != nil {
		fmt.Fprintln(os.Stderr, "anychat:", err)
		os.Exit(1)
	}
}

func run(configPath, modelOverride string, browse bool, prompt string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	provider, err := anychat.NewProvider(anychat.Kind(cfg.Provider.Kind), anychat.ProviderConfig{
		APIKey:     cfg.Provider.APIKey,
		Host:       cfg.Provider.Host,
		APIVersion: cfg.Provider.APIVersion,
		LicenseKey: cfg.Provider.LicenseKey,
		InstanceID: cfg.Provider.InstanceID,
	})
	if err != nil {
		return err
	}

	chat := engine.New(provider, engineOptions(cfg.Search)...)

	model := cfg.Model
	if modelOverride != "" {
		model = modelOverride
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = observability.ContextWithObserver(ctx, slogobs.New())

	printer := &deltaPrinter{}
	answer, err := chat.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, engine.CallOptions{
		Model:          model,
		WebBrowsing:    browse,
		OnResultChange: printer.update,
	})
	if err != nil {
		return err
	}

	// Deltas already printed everything; cover the non-streaming edge where
	// no callback fired.
	if printer.printed == 0 && answer != "" {
		fmt.Print(answer)
	}
	fmt.Println()
	return nil
}

func engineOptions(search SearchSection) []engine.Option {
	var backend websearch.Engine
	switch search.Engine {
	case "brave":
		backend = websearch.NewBrave(search.BraveAPIKey)
	case "combined":
		backend = websearch.NewCombined(websearch.NewDuckDuckGo(), websearch.NewBrave(search.BraveAPIKey))
	default:
		backend = websearch.NewDuckDuckGo()
	}

	var toolOpts []websearch.Option
	if search.FetchTopResult {
		toolOpts = append(toolOpts, websearch.WithTopResultExcerpt())
	}
	return []engine.Option{engine.WithWebSearch(websearch.New(backend, toolOpts...))}
}

// deltaPrinter renders cumulative deltas incrementally: each callback
// carries the full buffer, so only the unseen suffix is written.
type deltaPrinter struct {
	printed       int
	linksReported bool
}

func (p *deltaPrinter) update(delta engine.ResultDelta) {
	if delta.WebBrowsing != nil && !p.linksReported {
		p.linksReported = true
		fmt.Printf("[searching: %s]\n", delta.WebBrowsing.Query)
		for _, link := range delta.WebBrowsing.Links {
			fmt.Printf("  - %s (%s)\n", link.Title, link.URL)
		}
	}

	if len(delta.Content) > p.printed {
		fmt.Print(delta.Content[p.printed:])
		p.printed = len(delta.Content)
	}
}
