// Command findfood-cli drives the recommendation engine from a terminal,
// standing in for the chat transport: search, surprise picks and
// like/dislike/next feedback on the presented cards.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/findfood/engine/internal/llm"
	"github.com/findfood/engine/pkg/findfood"
	"github.com/findfood/engine/pkg/findfood/cards"
	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/catalog/sqlite"
	"github.com/findfood/engine/pkg/findfood/config"
	"github.com/findfood/engine/pkg/findfood/internalerr"
	"github.com/findfood/engine/pkg/findfood/taste"
	"github.com/findfood/engine/pkg/findfood/terms"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Catalog database path (required)")
		synPath  = flag.String("synonyms", "", "Synonym table YAML (optional, built-in table by default)")
		userID   = flag.Int64("user", 1, "User identity for session state")
		city     = flag.String("city", "", "City for venue suggestions")
		llmBase  = flag.String("llm-base", "", "OpenAI-compatible endpoint for no-match fallback (optional)")
		llmModel = flag.String("llm-model", "", "Model name for the fallback")
		llmKey   = flag.String("llm-key", "", "API key for the fallback")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()

	store, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}

	syn := terms.Default()
	if *synPath != "" {
		syn, err = config.LoadSynonyms(*synPath)
		if err != nil {
			log.Fatalf("load synonyms: %v", err)
		}
	}

	engine := findfood.New(findfood.Options{
		Store:      store,
		Synonyms:   syn,
		ThinkDelay: 600 * time.Millisecond,
	})
	defer engine.Close()

	var fallback *llm.Client
	if *llmBase != "" && *llmModel != "" {
		fallback = &llm.Client{BaseURL: *llmBase, Model: *llmModel, APIKey: *llmKey}
	}

	fmt.Println("===========================================")
	fmt.Println("  FindFood CLI")
	fmt.Println("  recipe <text> | venue <text> | surprise [category]")
	fmt.Println("  like | dislike | next | favorites")
	fmt.Println("===========================================")
	fmt.Println()

	var (
		currentKind catalog.Kind = catalog.KindRecipe
		currentItem int64
		lastQuery   string
	)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest := splitCommand(line)
		var (
			card cards.Card
			err  error
		)

		switch cmd {
		case "quit", "exit":
			fmt.Println("Bon appétit!")
			return

		case "favorites":
			favs, ferr := engine.Favorites(ctx, *userID, 15)
			if ferr != nil {
				fmt.Println("Error:", ferr)
				continue
			}
			if len(favs) == 0 {
				fmt.Println("No favorites yet. Hit 'like' on a recipe you enjoy!")
				continue
			}
			fmt.Println("Your favorites:")
			for _, f := range favs {
				fmt.Printf("  • %s\n", f.Item.Title)
			}
			continue

		case "like", "dislike", "next":
			if currentItem == 0 {
				fmt.Println("Nothing on the table yet. Search or ask for a surprise first.")
				continue
			}
			card, err = engine.OnFeedback(ctx, findfood.FeedbackRequest{
				User:   *userID,
				Kind:   currentKind,
				ItemID: currentItem,
				Action: cards.Action(cmd),
			})

		case "surprise":
			currentKind = catalog.KindRecipe
			lastQuery = ""
			card, err = engine.StartRandom(ctx, findfood.RandomRequest{
				User:     *userID,
				Kind:     currentKind,
				Category: taste.Category(rest),
				City:     *city,
			})

		case "venue":
			currentKind = catalog.KindVenue
			lastQuery = rest
			card, err = engine.StartSearch(ctx, findfood.SearchRequest{
				User: *userID,
				Kind: currentKind,
				Text: rest,
				City: *city,
			})

		case "recipe":
			currentKind = catalog.KindRecipe
			lastQuery = rest
			card, err = engine.StartSearch(ctx, findfood.SearchRequest{
				User: *userID,
				Kind: currentKind,
				Text: rest,
				City: *city,
			})

		default:
			// Bare text searches recipes.
			currentKind = catalog.KindRecipe
			lastQuery = line
			card, err = engine.StartSearch(ctx, findfood.SearchRequest{
				User: *userID,
				Kind: currentKind,
				Text: line,
				City: *city,
			})
		}

		switch {
		case err == nil:
			currentItem = card.ItemID
			printCard(card)
			printHint(ctx, engine, *userID)
		case errors.Is(err, internalerr.ErrBusy):
			fmt.Println("Still working on the previous request…")
		case errors.Is(err, internalerr.ErrNoMatch):
			currentItem = 0
			divertToFallback(ctx, fallback, currentKind, *city, lastQuery)
		default:
			fmt.Println("Error:", err)
		}
	}
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(parts[0])
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest
}

func printCard(card cards.Card) {
	fmt.Printf("\n🍽  %s\n", card.Title)
	for _, line := range card.Lines {
		fmt.Printf("   %s\n", line)
	}
	fmt.Println("   [like] [dislike] [next]")
	fmt.Println()
}

func printHint(ctx context.Context, engine *findfood.Engine, user int64) {
	cat, ok, err := engine.ProactiveHint(ctx, user)
	if err != nil || !ok {
		return
	}
	fmt.Printf("💡 You seem to enjoy %s food — try 'surprise %s'.\n\n", cat, cat)
}

func divertToFallback(ctx context.Context, fallback *llm.Client, kind catalog.Kind, city, query string) {
	if fallback == nil {
		fmt.Println("No match in the catalog. Try another phrase or 'surprise'.")
		return
	}
	fmt.Println("No exact match — let me improvise…")
	out, err := fallback.Suggest(ctx, llm.SuggestRequest{
		Kind:  kind,
		City:  city,
		Query: query,
	})
	if err != nil {
		fmt.Println("Fallback unavailable:", err)
		return
	}
	fmt.Println(out)
}
